package order

import "github.com/luigy23/BackComandapp/internal/observability"

// LogNotifier announces new orders as a structured log line. It stands in
// for a kitchen display integration.
type LogNotifier struct {
	logger *observability.Logger
}

func NewLogNotifier(logger *observability.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) OrderPlaced(o Order) {
	n.logger.Info("order_placed", map[string]any{
		"order_id": o.ID,
		"table_id": o.TableID,
		"items":    len(o.Items),
	})
}

func (n *LogNotifier) OrderUpdated(o Order) {
	n.logger.Info("order_updated", map[string]any{
		"order_id": o.ID,
		"table_id": o.TableID,
		"status":   o.Status,
	})
}
