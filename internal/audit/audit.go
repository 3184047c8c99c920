// Package audit 把订单事件写入 MongoDB，留作事后追查。未配置 MONGO_URI 时不启用。
package audit

import (
	"context"
	"sync"
	"time"

	"restaurant_order/internal/order"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Entry 一条审计记录。
type Entry struct {
	Action      string    `bson:"action"`
	OrderID     uint      `bson:"order_id"`
	OrderNumber string    `bson:"order_number"`
	Data        bson.M    `bson:"data"`
	CreatedAt   time.Time `bson:"created_at"`
}

// Store 审计记录所在的集合。
type Store struct {
	client     *mongo.Client
	collection *mongo.Collection
}

func Open(ctx context.Context, uri, database, collection string) (*Store, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return &Store{
		client:     client,
		collection: client.Database(database).Collection(collection),
	}, nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *Store) Insert(ctx context.Context, e Entry) error {
	_, err := s.collection.InsertOne(ctx, e)
	return err
}

// History 某个订单的审计记录，新的在前。
func (s *Store) History(ctx context.Context, orderNumber string, limit int64) ([]Entry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(limit)
	cursor, err := s.collection.Find(ctx, bson.M{"order_number": orderNumber}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []Entry
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Recorder 订单事件处理器。写入在后台进行，不拖慢下单请求。
type Recorder struct {
	store   *Store
	log     *zap.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewRecorder(store *Store, log *zap.Logger) *Recorder {
	return &Recorder{store: store, log: log.Named("audit"), timeout: 5 * time.Second}
}

func (r *Recorder) HandleEvent(ctx context.Context, ev order.Event) {
	e := EntryFromEvent(ev)
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
		defer cancel()
		if err := r.store.Insert(ctx, e); err != nil {
			r.log.Warn("write audit entry failed",
				zap.String("action", e.Action),
				zap.String("order_number", e.OrderNumber),
				zap.Error(err))
		}
	}()
}

// Wait 等待尚未完成的写入，关闭前调用。
func (r *Recorder) Wait() { r.wg.Wait() }

// EntryFromEvent 只记录定位问题需要的字段，不保存完整订单。
func EntryFromEvent(ev order.Event) Entry {
	o := ev.Order
	data := bson.M{
		"status":       string(o.Status),
		"total_amount": o.TotalAmount.String(),
		"item_count":   len(o.Items),
	}
	if ev.Kind == order.EventOrderStatusChanged {
		data["from"] = string(ev.From)
		data["to"] = string(ev.To)
	}
	if ev.Kind == order.EventOrderCreated {
		data["customer_phone"] = o.CustomerPhone
	}
	at := ev.At
	if at.IsZero() {
		at = time.Now().UTC()
	}
	return Entry{
		Action:      string(ev.Kind),
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		Data:        data,
		CreatedAt:   at,
	}
}
