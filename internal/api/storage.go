package api

import (
	"context"
	"encoding/json"
	"io"
	"math/rand"
	"sync"
	"time"

	"tablekit/internal/query"
	"tablekit/internal/schema"
	"tablekit/internal/store"

	"github.com/oklog/ulid/v2"
)

// Catalog: операции над каталогом таблиц, полей и прав.
type Catalog interface {
	ListTables(ctx context.Context, p store.TableListParams) ([]schema.TableDefinition, error)
	GetTable(ctx context.Context, name string) (schema.TableDefinition, error)
	LoadTable(ctx context.Context, name string) (schema.TableDefinition, error)
	CreateTable(ctx context.Context, req schema.CreateTableRequest) (schema.TableDefinition, []schema.FieldDefinition, error)
	UpdateTable(ctx context.Context, name string, req schema.UpdateTableRequest) (schema.TableDefinition, error)
	DeleteTable(ctx context.Context, name string) (schema.TableDefinition, error)

	ListFields(ctx context.Context, table string) ([]schema.FieldDefinition, error)
	GetField(ctx context.Context, table, field string) (schema.FieldDefinition, error)
	AddFields(ctx context.Context, table string, reqs []schema.CreateFieldRequest) ([]schema.FieldDefinition, error)
	UpdateField(ctx context.Context, table, field string, req schema.UpdateFieldRequest) (schema.FieldDefinition, error)
	DeleteField(ctx context.Context, table, field string) (schema.FieldDefinition, error)

	ListPermissions(ctx context.Context, table string) ([]schema.TablePermission, error)
	SetPermission(ctx context.Context, table string, perm schema.Permission, allow bool) (schema.TablePermission, error)

	Ping(ctx context.Context) error
}

// Rows: строки одной пользовательской таблицы; каждая строка: JSON-объект с snake_case ключами.
type Rows interface {
	List(ctx context.Context, res query.Result) ([]json.RawMessage, error)
	Get(ctx context.Context, id string) (json.RawMessage, error)
	Insert(ctx context.Context, body map[string]any) (json.RawMessage, error)
	Replace(ctx context.Context, id string, body map[string]any) (json.RawMessage, error)
	Update(ctx context.Context, id string, body map[string]any) (json.RawMessage, error)
	Delete(ctx context.Context, id string) (json.RawMessage, error)
}

// RowsFunc открывает доступ к строкам загруженной таблицы.
type RowsFunc func(t schema.TableDefinition) (Rows, error)

// StoreRows: RowsFunc поверх store.Store.
func StoreRows(st *store.Store) RowsFunc {
	return func(t schema.TableDefinition) (Rows, error) {
		r, err := st.Records(t)
		if err != nil {
			return nil, err
		}
		return r, nil
	}
}

// idSource: монотонные ULID для X-Request-ID.
type idSource struct {
	mu      sync.Mutex
	entropy io.Reader
}

func newIDSource() *idSource {
	src := rand.New(rand.NewSource(time.Now().UnixNano()))
	return &idSource{entropy: ulid.Monotonic(src, 0)}
}

func (s *idSource) next() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy).String()
}
