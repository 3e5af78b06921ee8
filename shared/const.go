package shared

const (
	AdminSubject = "admin_subject"
	ClientInfo   = "client_info"

	OrderStatusPending    = "pending"
	OrderStatusPendingCOD = "pending_cod"
	OrderStatusConfirmed  = "confirmed"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusReturned   = "returned"
	OrderStatusCancelled  = "cancelled"

	TrackPageView       = "page_view"
	TrackClick          = "click"
	TrackActivity       = "activity"
	TrackHeartbeat      = "heartbeat"
	TrackActivityUpdate = "activity_update"
	TrackSessionEnd     = "session_end"

	ReasonRateLimitExceeded = "Rate limit exceeded"
	ReasonDatabaseError     = "Database error"

	CacheKeyOrderList = "orders:list:"
	CacheKeyOrderItem = "orders:item:"
	CacheKeyIPPrefix  = "ip:"
	CacheKeyIPStats   = "ip:stats"
	CacheKeyGeo       = "geo:"
)

// Order rate limit policy, enforced by the limit store.
const (
	RateLimitMaxOrders     = 3
	RateLimitWindowSeconds = 24 * 60 * 60
)
