package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/MateoHeras77/ShiftTradeAV/internal/model"
	"github.com/MateoHeras77/ShiftTradeAV/internal/repository"
	pkgerrors "github.com/MateoHeras77/ShiftTradeAV/pkg/errors"
	"github.com/MateoHeras77/ShiftTradeAV/pkg/mailer"
)

// ── Mock ShiftRequestRepository ──
// 存取均为副本，条件更新语义与 GORM 实现一致

type mockShiftRequestRepo struct {
	mu       sync.Mutex
	requests map[string]*model.ShiftRequest
	seq      int
	err      error // 非 nil 时所有写操作返回该错误
}

func newMockShiftRequestRepo() *mockShiftRequestRepo {
	return &mockShiftRequestRepo{requests: make(map[string]*model.ShiftRequest)}
}

func (m *mockShiftRequestRepo) Create(_ context.Context, req *model.ShiftRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.seq++
	if req.ShiftRequestID == "" {
		req.ShiftRequestID = uuid.NewString()
	}
	if req.SupervisorStatus == "" {
		req.SupervisorStatus = model.StatusPending
	}
	req.Version = 1
	req.CreatedAt = time.Date(2025, 5, 1, 12, 0, m.seq, 0, time.UTC)
	req.UpdatedAt = req.CreatedAt
	cp := *req
	m.requests[req.ShiftRequestID] = &cp
	return nil
}

func (m *mockShiftRequestRepo) GetByID(_ context.Context, id string) (*model.ShiftRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.requests[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockShiftRequestRepo) ListPending(_ context.Context) ([]model.ShiftRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.ShiftRequest
	for _, r := range m.requests {
		if r.SupervisorStatus == model.StatusPending {
			result = append(result, *r)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		ai, aj := result[i].CoverAccepted(), result[j].CoverAccepted()
		if ai != aj {
			return ai
		}
		if result[i].ShiftDate != result[j].ShiftDate {
			return result[i].ShiftDate.Before(result[j].ShiftDate)
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (m *mockShiftRequestRepo) List(_ context.Context, f repository.ShiftRequestFilter, offset, limit int) ([]model.ShiftRequest, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []model.ShiftRequest
	for _, r := range m.requests {
		if f.RequesterName != "" && !strings.Contains(strings.ToLower(r.RequesterName), strings.ToLower(f.RequesterName)) {
			continue
		}
		if f.CoverName != "" && !strings.Contains(strings.ToLower(r.CoverName), strings.ToLower(f.CoverName)) {
			continue
		}
		if f.Status != "" && r.SupervisorStatus != f.Status {
			continue
		}
		if f.FlightNumber != "" && r.FlightNumber != f.FlightNumber {
			continue
		}
		if !f.From.IsZero() && r.ShiftDate.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && f.To.Before(r.ShiftDate) {
			continue
		}
		all = append(all, *r)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].ShiftDate != all[j].ShiftDate {
			return all[i].ShiftDate.Before(all[j].ShiftDate)
		}
		return all[i].CreatedAt.Before(all[j].CreatedAt)
	})
	total := int64(len(all))
	if offset >= len(all) {
		return []model.ShiftRequest{}, total, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, total, nil
}

func (m *mockShiftRequestRepo) MarkCoverAccepted(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	r, ok := m.requests[id]
	if !ok || r.CoverAcceptedAt != nil || r.SupervisorStatus != model.StatusPending {
		return pkgerrors.ErrNoRowsAffected
	}
	t := at.UTC()
	r.CoverAcceptedAt = &t
	r.Version++
	return nil
}

func (m *mockShiftRequestRepo) Decide(_ context.Context, req *model.ShiftRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	r, ok := m.requests[req.ShiftRequestID]
	if !ok || r.Version != req.Version || r.SupervisorStatus != model.StatusPending {
		return pkgerrors.ErrOptimisticLock
	}
	r.SupervisorStatus = req.SupervisorStatus
	r.SupervisorName = req.SupervisorName
	r.SupervisorComments = req.SupervisorComments
	r.SupervisorDecidedAt = req.SupervisorDecidedAt
	r.Version++
	req.Version = r.Version
	return nil
}

// ── Mock TokenRepository ──

type mockTokenRepo struct {
	mu     sync.Mutex
	tokens map[string]*model.AcceptanceToken
	seq    int
	err    error
}

func newMockTokenRepo() *mockTokenRepo {
	return &mockTokenRepo{tokens: make(map[string]*model.AcceptanceToken)}
}

func (m *mockTokenRepo) Create(_ context.Context, token *model.AcceptanceToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.seq++
	if token.Token == "" {
		token.Token = fmt.Sprintf("tok-%d", m.seq)
	}
	cp := *token
	m.tokens[token.Token] = &cp
	return nil
}

func (m *mockTokenRepo) GetByToken(_ context.Context, token string) (*model.AcceptanceToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.tokens[token]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTokenRepo) Consume(_ context.Context, shiftRequestID, token string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tokens[token]
	if !ok || t.ShiftRequestID != shiftRequestID || t.Used || t.RevokedAt != nil || now.After(t.ExpiresAt) {
		return pkgerrors.ErrNoRowsAffected
	}
	t.Used = true
	t.UsedAt = &now
	return nil
}

func (m *mockTokenRepo) RevokeActive(_ context.Context, shiftRequestID string, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	var n int64
	for _, t := range m.tokens {
		if t.ShiftRequestID == shiftRequestID && !t.Used && t.RevokedAt == nil {
			at := now
			t.RevokedAt = &at
			n++
		}
	}
	return n, nil
}

func (m *mockTokenRepo) ListByRequest(_ context.Context, shiftRequestID string) ([]model.AcceptanceToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.AcceptanceToken
	for _, t := range m.tokens {
		if t.ShiftRequestID == shiftRequestID {
			result = append(result, *t)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

// ── Mock EmployeeRepository ──

type mockEmployeeRepo struct {
	employees map[string]*model.Employee
	seq       int
}

func newMockEmployeeRepo() *mockEmployeeRepo {
	return &mockEmployeeRepo{employees: make(map[string]*model.Employee)}
}

func (m *mockEmployeeRepo) Create(_ context.Context, emp *model.Employee) error {
	m.seq++
	if emp.EmployeeID == "" {
		emp.EmployeeID = uuid.NewString()
	}
	cp := *emp
	m.employees[emp.EmployeeID] = &cp
	return nil
}

func (m *mockEmployeeRepo) GetByID(_ context.Context, id string) (*model.Employee, error) {
	if e, ok := m.employees[id]; ok {
		cp := *e
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockEmployeeRepo) List(_ context.Context, active bool) ([]model.Employee, error) {
	var result []model.Employee
	for _, e := range m.employees {
		if e.IsActive == active {
			result = append(result, *e)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].FullName < result[j].FullName })
	return result, nil
}

func (m *mockEmployeeRepo) ActiveConflicts(_ context.Context, fullName, email, excludeID string) (bool, bool, error) {
	var nameTaken, emailTaken bool
	for _, e := range m.employees {
		if !e.IsActive || e.EmployeeID == excludeID {
			continue
		}
		if strings.EqualFold(e.FullName, fullName) {
			nameTaken = true
		}
		if strings.EqualFold(e.Email, email) {
			emailTaken = true
		}
	}
	return nameTaken, emailTaken, nil
}

func (m *mockEmployeeRepo) Update(_ context.Context, emp *model.Employee) error {
	cp := *emp
	m.employees[emp.EmployeeID] = &cp
	return nil
}

func (m *mockEmployeeRepo) SetActive(_ context.Context, id string, active bool) error {
	e, ok := m.employees[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	e.IsActive = active
	return nil
}

// ── Fake mailer.Sender ──

type fakeSender struct {
	mu      sync.Mutex
	sent    []*mailer.Message
	failFor map[string]bool // 收件人 → 投递失败
	panics  bool
}

func newFakeSender() *fakeSender {
	return &fakeSender{failFor: make(map[string]bool)}
}

func (f *fakeSender) Send(_ context.Context, msg *mailer.Message) error {
	if f.panics {
		panic("smtp exploded")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFor[msg.To] {
		return errors.New("smtp: 550 mailbox unavailable")
	}
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeSender) to(addr string) []*mailer.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []*mailer.Message
	for _, m := range f.sent {
		if m.To == addr {
			result = append(result, m)
		}
	}
	return result
}

// ── 测试辅助 ──

func newMockRepository() (*repository.Repository, *mockShiftRequestRepo, *mockTokenRepo, *mockEmployeeRepo) {
	reqRepo := newMockShiftRequestRepo()
	tokRepo := newMockTokenRepo()
	empRepo := newMockEmployeeRepo()
	repo := &repository.Repository{
		ShiftRequest: reqRepo,
		Token:        tokRepo,
		Employee:     empRepo,
	}
	return repo, reqRepo, tokRepo, empRepo
}

// testClock 可手动推进的时钟
type testClock struct {
	t time.Time
}

func (c *testClock) now() time.Time { return c.t }

func (c *testClock) advance(d time.Duration) { c.t = c.t.Add(d) }
