package domain

// OrderSide represents the side of an order (BUY or SELL).
type OrderSide string

const (
	Buy  OrderSide = "BUY"
	Sell OrderSide = "SELL"
)

// Action is the outcome of a single evaluation cycle.
type Action string

const (
	ActionBuy     Action = "BUY"
	ActionHold    Action = "HOLD"
	ActionSell    Action = "SELL"
	ActionAbstain Action = "ABSTAIN"
)

// CloseReason indicates why a position was closed.
type CloseReason string

const (
	CloseReasonStopLoss     CloseReason = "STOP_LOSS"
	CloseReasonSeverityStop CloseReason = "SEVERITY_STOP" // tightened stop on a fast decline
	CloseReasonTargetProfit CloseReason = "TARGET_PROFIT"
	CloseReasonOverbought   CloseReason = "OVERBOUGHT"
	CloseReasonTimeBox      CloseReason = "TIME_BOX"   // watch window elapsed with profit above minimum
	CloseReasonPreWindow    CloseReason = "PRE_WINDOW" // forced evaluation before the restricted window
	CloseReasonManual       CloseReason = "MANUAL"
)
