package constants

// 订单状态常量
const (
	OrderStatusPending    = "pending"
	OrderStatusConfirmed  = "confirmed"
	OrderStatusProcessing = "processing"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
)

// 支付状态常量
const (
	PaymentStatusPending  = "pending"
	PaymentStatusPaid     = "paid"
	PaymentStatusFailed   = "failed"
	PaymentStatusRefunded = "refunded"
)

// 支付方式常量
const (
	PaymentMethodCOD    = "cod"
	PaymentMethodStripe = "stripe"
	PaymentMethodPaypal = "paypal"
)

// 折扣码类型常量
const (
	DiscountTypePercentage = "percentage"
	DiscountTypeFixed      = "fixed"
)

// 订单号常量
const (
	OrderNumberPrefix     = "YF"
	OrderNumberDateLayout = "20060102"
)

// 队列常量
const (
	QueueDefault              = "default"
	TaskOrderCreated          = "order:created"
	TaskOrderPaid             = "order:paid"
	TaskOrderDeliveryReminder = "order:delivery_reminder"
)

// 缓存默认配置常量
const (
	RedisPrefixDefault = "yf"
)

// 站点币种常量
const (
	SiteCurrencyDefault = "VND"
)
