package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/fieldline/crm-system/internal/core/domain"
)

// ---------------------------------------------------------------------------
// In-memory stub repositories shared by the service tests. They mirror the
// filter and not-found behaviour of the real Mongo repositories.
// ---------------------------------------------------------------------------

var discardLogger = zerolog.Nop()

type stubTxRunner struct {
	calls int
}

func (t *stubTxRunner) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	t.calls++
	return fn(ctx)
}

// --- customers ---

type stubCustomerRepo struct {
	byID      map[string]*domain.Customer
	seq       int
	updateErr error
}

func newStubCustomerRepo() *stubCustomerRepo {
	return &stubCustomerRepo{byID: make(map[string]*domain.Customer)}
}

func (r *stubCustomerRepo) Insert(_ context.Context, c *domain.Customer) (*domain.Customer, error) {
	r.seq++
	clone := *c
	clone.ID = fmt.Sprintf("cust-%d", r.seq)
	r.byID[clone.ID] = &clone
	out := clone
	return &out, nil
}

func (r *stubCustomerRepo) FindByID(_ context.Context, id string) (*domain.Customer, error) {
	c, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrCustomerNotFound
	}
	clone := *c
	return &clone, nil
}

func (r *stubCustomerRepo) FindByEmail(_ context.Context, email string) (*domain.Customer, error) {
	for _, c := range r.byID {
		if c.Email == email {
			clone := *c
			return &clone, nil
		}
	}
	return nil, domain.ErrCustomerNotFound
}

func (r *stubCustomerRepo) FindAll(_ context.Context) ([]*domain.Customer, error) {
	out := make([]*domain.Customer, 0, len(r.byID))
	for i := 1; i <= r.seq; i++ {
		if c, ok := r.byID[fmt.Sprintf("cust-%d", i)]; ok {
			clone := *c
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *stubCustomerRepo) Update(_ context.Context, c *domain.Customer) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	if _, ok := r.byID[c.ID]; !ok {
		return domain.ErrCustomerNotFound
	}
	clone := *c
	r.byID[c.ID] = &clone
	return nil
}

func (r *stubCustomerRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.byID[id]; !ok {
		return domain.ErrCustomerNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *stubCustomerRepo) Count(_ context.Context) (int64, error) {
	return int64(len(r.byID)), nil
}

// --- sales ---

type stubSaleRepo struct {
	byID map[string]*domain.Sale
	seq  int
	// findByCustomerErr fails FindByCustomerID for one customer id only.
	findByCustomerErr map[string]error
}

func newStubSaleRepo() *stubSaleRepo {
	return &stubSaleRepo{
		byID:              make(map[string]*domain.Sale),
		findByCustomerErr: make(map[string]error),
	}
}

func (r *stubSaleRepo) Insert(_ context.Context, s *domain.Sale) (*domain.Sale, error) {
	r.seq++
	clone := *s
	clone.ID = fmt.Sprintf("sale-%d", r.seq)
	r.byID[clone.ID] = &clone
	out := clone
	return &out, nil
}

func (r *stubSaleRepo) FindByID(_ context.Context, id string) (*domain.Sale, error) {
	s, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrSaleNotFound
	}
	clone := *s
	return &clone, nil
}

func (r *stubSaleRepo) FindAll(_ context.Context) ([]*domain.Sale, error) {
	out := make([]*domain.Sale, 0, len(r.byID))
	for i := 1; i <= r.seq; i++ {
		if s, ok := r.byID[fmt.Sprintf("sale-%d", i)]; ok {
			clone := *s
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *stubSaleRepo) FindByCustomerID(_ context.Context, customerID string) ([]*domain.Sale, error) {
	if err := r.findByCustomerErr[customerID]; err != nil {
		return nil, err
	}
	var out []*domain.Sale
	for i := 1; i <= r.seq; i++ {
		if s, ok := r.byID[fmt.Sprintf("sale-%d", i)]; ok && s.CustomerID == customerID {
			clone := *s
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *stubSaleRepo) FindBySalesRepID(_ context.Context, repID string) ([]*domain.Sale, error) {
	var out []*domain.Sale
	for i := 1; i <= r.seq; i++ {
		if s, ok := r.byID[fmt.Sprintf("sale-%d", i)]; ok && s.SalesRepID == repID {
			clone := *s
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *stubSaleRepo) FindByStatus(_ context.Context, status domain.SaleStatus) ([]*domain.Sale, error) {
	var out []*domain.Sale
	for i := 1; i <= r.seq; i++ {
		if s, ok := r.byID[fmt.Sprintf("sale-%d", i)]; ok && s.Status == status {
			clone := *s
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *stubSaleRepo) Update(_ context.Context, s *domain.Sale) error {
	if _, ok := r.byID[s.ID]; !ok {
		return domain.ErrSaleNotFound
	}
	clone := *s
	r.byID[s.ID] = &clone
	return nil
}

func (r *stubSaleRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.byID[id]; !ok {
		return domain.ErrSaleNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *stubSaleRepo) ClearCustomer(_ context.Context, customerID string) error {
	for _, s := range r.byID {
		if s.CustomerID == customerID {
			s.CustomerID = ""
		}
	}
	return nil
}

func (r *stubSaleRepo) ClearSalesRep(_ context.Context, repID string) error {
	for _, s := range r.byID {
		if s.SalesRepID == repID {
			s.SalesRepID = ""
		}
	}
	return nil
}

// --- users ---

type stubUserRepo struct {
	byID map[string]*domain.User
	seq  int
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{byID: make(map[string]*domain.User)}
}

func (r *stubUserRepo) Insert(_ context.Context, u *domain.User) (*domain.User, error) {
	r.seq++
	clone := *u
	clone.ID = fmt.Sprintf("user-%d", r.seq)
	r.byID[clone.ID] = &clone
	out := clone
	return &out, nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	u, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (r *stubUserRepo) FindByUserName(_ context.Context, userName string) (*domain.User, error) {
	for _, u := range r.byID {
		if u.UserName == userName {
			clone := *u
			return &clone, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range r.byID {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindAll(_ context.Context) ([]*domain.User, error) {
	out := make([]*domain.User, 0, len(r.byID))
	for i := 1; i <= r.seq; i++ {
		if u, ok := r.byID[fmt.Sprintf("user-%d", i)]; ok {
			clone := *u
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *stubUserRepo) Update(_ context.Context, u *domain.User) error {
	if _, ok := r.byID[u.ID]; !ok {
		return domain.ErrUserNotFound
	}
	clone := *u
	r.byID[u.ID] = &clone
	return nil
}

func (r *stubUserRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.byID[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *stubUserRepo) ClearManager(_ context.Context, managerID string) error {
	for _, u := range r.byID {
		if u.ManagerID == managerID {
			u.ManagerID = ""
		}
	}
	return nil
}

// --- interactions ---

type stubInteractionRepo struct {
	byID map[string]*domain.Interaction
	seq  int
}

func newStubInteractionRepo() *stubInteractionRepo {
	return &stubInteractionRepo{byID: make(map[string]*domain.Interaction)}
}

func (r *stubInteractionRepo) Insert(_ context.Context, i *domain.Interaction) (*domain.Interaction, error) {
	r.seq++
	clone := *i
	clone.ID = fmt.Sprintf("int-%d", r.seq)
	r.byID[clone.ID] = &clone
	out := clone
	return &out, nil
}

func (r *stubInteractionRepo) FindByID(_ context.Context, id string) (*domain.Interaction, error) {
	i, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrInteractionNotFound
	}
	clone := *i
	return &clone, nil
}

func (r *stubInteractionRepo) FindAll(_ context.Context) ([]*domain.Interaction, error) {
	out := make([]*domain.Interaction, 0, len(r.byID))
	for n := 1; n <= r.seq; n++ {
		if i, ok := r.byID[fmt.Sprintf("int-%d", n)]; ok {
			clone := *i
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *stubInteractionRepo) FindByCustomerID(_ context.Context, customerID string) ([]*domain.Interaction, error) {
	var out []*domain.Interaction
	for n := 1; n <= r.seq; n++ {
		if i, ok := r.byID[fmt.Sprintf("int-%d", n)]; ok && i.CustomerID == customerID {
			clone := *i
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *stubInteractionRepo) FindByPerformedByID(_ context.Context, userID string) ([]*domain.Interaction, error) {
	var out []*domain.Interaction
	for n := 1; n <= r.seq; n++ {
		if i, ok := r.byID[fmt.Sprintf("int-%d", n)]; ok && i.PerformedByID == userID {
			clone := *i
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *stubInteractionRepo) FindByType(_ context.Context, t domain.InteractionType) ([]*domain.Interaction, error) {
	var out []*domain.Interaction
	for n := 1; n <= r.seq; n++ {
		if i, ok := r.byID[fmt.Sprintf("int-%d", n)]; ok && i.Type == t {
			clone := *i
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *stubInteractionRepo) Update(_ context.Context, i *domain.Interaction) error {
	if _, ok := r.byID[i.ID]; !ok {
		return domain.ErrInteractionNotFound
	}
	clone := *i
	r.byID[i.ID] = &clone
	return nil
}

func (r *stubInteractionRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.byID[id]; !ok {
		return domain.ErrInteractionNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *stubInteractionRepo) Count(_ context.Context) (int64, error) {
	return int64(len(r.byID)), nil
}

func (r *stubInteractionRepo) ClearCustomer(_ context.Context, customerID string) error {
	for _, i := range r.byID {
		if i.CustomerID == customerID {
			i.CustomerID = ""
		}
	}
	return nil
}

func (r *stubInteractionRepo) ClearPerformedBy(_ context.Context, userID string) error {
	for _, i := range r.byID {
		if i.PerformedByID == userID {
			i.PerformedByID = ""
		}
	}
	return nil
}
