package enums

// Order display statuses are free-form strings appended to the status log,
// not a closed enum: staff tooling may write values outside this list and the
// lifecycle engine treats any string as a valid, opaque status. The constants
// below only name the well-known values rendered by the apps.
const (
	OrderStatusPending    = "Pending"
	OrderStatusInProgress = "In Progress"
	OrderStatusCompleted  = "Completed"
	OrderStatusDelivered  = "Delivered"
	OrderStatusCancelled  = "Cancelled"
)
