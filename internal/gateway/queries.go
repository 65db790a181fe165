package gateway

import "fmt"

// Metric expressions exported by the trading process.
const (
	// QueryBalance is the current-balance gauge, used for both the
	// historical backfill (range) and the live append (instant).
	QueryBalance = "sandwich_bot_balance_sol"

	// QueryLastEvent is the last-event gauge. The JSON-encoded event rides
	// in the "payload" label (a gauge value can only carry a float);
	// see LastEventPayloadLabel.
	QueryLastEvent = "sandwich_bot_last_event"

	// LastEventPayloadLabel is the label on QueryLastEvent carrying the
	// JSON-encoded event.
	LastEventPayloadLabel = "payload"
)

// QueryProfitIncrease returns the profit counter increase over the given
// lookback window label (e.g. "1h").
func QueryProfitIncrease(window string) string {
	return fmt.Sprintf("increase(sandwich_bot_profit_sol_total[%s])", window)
}

// QueryProfitRate is the profit-rate expression for the fine-step range
// series behind the profit view.
func QueryProfitRate(window string) string {
	return fmt.Sprintf("rate(sandwich_bot_profit_sol_total[%s])", window)
}

// QueryBundlesLanded is the landed-bundle counter increase per step window.
func QueryBundlesLanded(window string) string {
	return fmt.Sprintf("increase(sandwich_bot_bundles_landed_total[%s])", window)
}

// QueryTips is the Jito tips counter increase per step window.
func QueryTips(window string) string {
	return fmt.Sprintf("increase(sandwich_bot_tips_sol_total[%s])", window)
}
