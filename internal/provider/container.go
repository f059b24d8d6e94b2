package provider

import (
	"github.com/yenflowers/api/internal/cache"
	"github.com/yenflowers/api/internal/config"
	"github.com/yenflowers/api/internal/logger"
	"github.com/yenflowers/api/internal/models"
	"github.com/yenflowers/api/internal/queue"
	"github.com/yenflowers/api/internal/repository"
	"github.com/yenflowers/api/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	ProductRepo      repository.ProductRepository
	DiscountCodeRepo repository.DiscountCodeRepository
	OrderRepo        repository.OrderRepository

	// Services
	DiscountService *service.DiscountService
	OrderService    *service.OrderService
	PaymentService  *service.PaymentService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}

	c.initRepositories()
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.ProductRepo = repository.NewProductRepository(db)
	c.DiscountCodeRepo = repository.NewDiscountCodeRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
}

func (c *Container) initServices() {
	c.DiscountService = service.NewDiscountService(c.DiscountCodeRepo)
	shippingCalc := service.NewShippingCalculator(c.Config.Shipping.DistrictFees, c.Config.Shipping.DefaultFee)
	c.OrderService = service.NewOrderService(c.OrderRepo, c.ProductRepo, c.DiscountService, shippingCalc, c.QueueClient)
	c.PaymentService = service.NewPaymentService(c.OrderRepo, c.QueueClient, c.Config.Stripe, c.Config.Paypal, c.Config.Site.Currency)
}
