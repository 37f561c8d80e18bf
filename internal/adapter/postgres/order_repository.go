package postgres

import (
	"context"
	"fmt"

	"github.com/YelzhanWeb/kitchen-display/internal/domain"
	"github.com/YelzhanWeb/kitchen-display/internal/interfaces"
)

const schema = `
CREATE TABLE IF NOT EXISTS kds_orders (
	id                   TEXT PRIMARY KEY,
	order_number         TEXT,
	platform             TEXT,
	table_number         TEXT,
	customer_name        TEXT,
	placed_at            TIMESTAMPTZ NOT NULL,
	status               TEXT NOT NULL,
	priority             TEXT NOT NULL,
	source               TEXT NOT NULL,
	order_type           TEXT NOT NULL,
	estimated_time       INT,
	special_instructions TEXT,
	updated_at           TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS kds_order_items (
	order_id             TEXT NOT NULL REFERENCES kds_orders(id) ON DELETE CASCADE,
	item_id              TEXT NOT NULL,
	position             INT NOT NULL,
	name                 TEXT NOT NULL,
	quantity             INT NOT NULL CHECK (quantity > 0),
	special_instructions TEXT,
	modifiers            TEXT[] NOT NULL DEFAULT '{}',
	PRIMARY KEY (order_id, item_id)
);

CREATE TABLE IF NOT EXISTS order_status_log (
	id         BIGSERIAL PRIMARY KEY,
	order_id   TEXT NOT NULL REFERENCES kds_orders(id) ON DELETE CASCADE,
	status     TEXT NOT NULL,
	changed_by TEXT NOT NULL,
	changed_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

type orderRepository struct {
	db DB
}

func NewOrderRepository(db DB) interfaces.LedgerRepository {
	return &orderRepository{db: db}
}

// Migrate creates the ledger tables if they do not exist.
func Migrate(ctx context.Context, db DB) error {
	if _, err := db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply ledger schema: %w", err)
	}
	return nil
}

// LoadAll returns every recorded order, oldest first, with items in their
// original order.
func (r *orderRepository) LoadAll(ctx context.Context) ([]domain.Order, error) {
	query := `
		SELECT id, order_number, platform, table_number, customer_name, placed_at,
		       status, priority, source, order_type, estimated_time, special_instructions
		FROM kds_orders
		ORDER BY placed_at, id
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	index := make(map[string]int)
	for rows.Next() {
		var o domain.Order
		if err := rows.Scan(
			&o.ID, &o.OrderNumber, &o.Platform, &o.TableNumber, &o.CustomerName, &o.Timestamp,
			&o.Status, &o.Priority, &o.Source, &o.OrderType, &o.EstimatedTime, &o.SpecialInstructions,
		); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		index[o.ID] = len(orders)
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read orders: %w", err)
	}

	if err := r.loadItems(ctx, orders, index); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *orderRepository) loadItems(ctx context.Context, orders []domain.Order, index map[string]int) error {
	query := `
		SELECT order_id, item_id, name, quantity, special_instructions, modifiers
		FROM kds_order_items
		ORDER BY order_id, position
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var orderID string
		var item domain.OrderItem
		if err := rows.Scan(&orderID, &item.ID, &item.Name, &item.Quantity, &item.SpecialInstructions, &item.Modifiers); err != nil {
			return fmt.Errorf("failed to scan order item: %w", err)
		}
		if len(item.Modifiers) == 0 {
			item.Modifiers = nil
		}

		i, ok := index[orderID]
		if !ok {
			continue
		}
		orders[i].Items = append(orders[i].Items, item)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to read order items: %w", err)
	}
	return nil
}

// Save upserts the order, replaces its items and logs its current status.
func (r *orderRepository) Save(ctx context.Context, order domain.Order) error {
	return InTx(ctx, r.db, func(tx Tx) error {
		return saveOrder(ctx, tx, order)
	})
}

func saveOrder(ctx context.Context, tx Tx, order domain.Order) error {
	query := `
		INSERT INTO kds_orders (id, order_number, platform, table_number, customer_name, placed_at,
		                        status, priority, source, order_type, estimated_time, special_instructions, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, now())
		ON CONFLICT (id) DO UPDATE SET
			order_number = EXCLUDED.order_number,
			platform = EXCLUDED.platform,
			table_number = EXCLUDED.table_number,
			customer_name = EXCLUDED.customer_name,
			placed_at = EXCLUDED.placed_at,
			status = EXCLUDED.status,
			priority = EXCLUDED.priority,
			source = EXCLUDED.source,
			order_type = EXCLUDED.order_type,
			estimated_time = EXCLUDED.estimated_time,
			special_instructions = EXCLUDED.special_instructions,
			updated_at = now()
	`
	_, err := tx.Exec(ctx, query,
		order.ID, order.OrderNumber, order.Platform, order.TableNumber, order.CustomerName, order.Timestamp,
		string(order.Status), string(order.Priority), string(order.Source), string(order.OrderType),
		order.EstimatedTime, order.SpecialInstructions,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert order %s: %w", order.ID, err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM kds_order_items WHERE order_id = $1`, order.ID); err != nil {
		return fmt.Errorf("failed to clear items of order %s: %w", order.ID, err)
	}

	itemQuery := `
		INSERT INTO kds_order_items (order_id, item_id, position, name, quantity, special_instructions, modifiers)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	for i, item := range order.Items {
		modifiers := item.Modifiers
		if modifiers == nil {
			modifiers = []string{}
		}
		_, err = tx.Exec(ctx, itemQuery, order.ID, item.ID, i, item.Name, item.Quantity, item.SpecialInstructions, modifiers)
		if err != nil {
			return fmt.Errorf("failed to insert item %s of order %s: %w", item.ID, order.ID, err)
		}
	}

	return insertStatusLog(ctx, tx, order.ID, order.Status, "channel")
}

// UpdateStatus records a status change. Unknown ids yield *domain.NotFoundError.
func (r *orderRepository) UpdateStatus(ctx context.Context, orderID string, status domain.Status, changedBy string) error {
	return InTx(ctx, r.db, func(tx Tx) error {
		tag, err := tx.Exec(ctx, `UPDATE kds_orders SET status = $2, updated_at = now() WHERE id = $1`, orderID, string(status))
		if err != nil {
			return fmt.Errorf("failed to update order status: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return &domain.NotFoundError{ID: orderID}
		}
		return insertStatusLog(ctx, tx, orderID, status, changedBy)
	})
}

func insertStatusLog(ctx context.Context, tx Tx, orderID string, status domain.Status, changedBy string) error {
	query := `
		INSERT INTO order_status_log (order_id, status, changed_by, changed_at)
		VALUES ($1, $2, $3, now())
	`
	if _, err := tx.Exec(ctx, query, orderID, string(status), changedBy); err != nil {
		return fmt.Errorf("failed to log status: %w", err)
	}
	return nil
}
