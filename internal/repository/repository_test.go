package repository_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/MateoHeras77/ShiftTradeAV/internal/model"
	"github.com/MateoHeras77/ShiftTradeAV/internal/repository"
	pkgerrors "github.com/MateoHeras77/ShiftTradeAV/pkg/errors"
	"github.com/MateoHeras77/ShiftTradeAV/pkg/shiftclock"
)

// ═══════════════════════════════════════════════════════════
// Test Setup（内存 SQLite）
// ═══════════════════════════════════════════════════════════

func newSQLiteRepo(t *testing.T) (*repository.Repository, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		t.Fatalf("打开 SQLite 失败: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := db.AutoMigrate(model.All()...); err != nil {
		t.Fatalf("AutoMigrate 失败: %v", err)
	}
	return repository.NewRepository(db), db
}

func seedRequest(t *testing.T, repo *repository.Repository, date shiftclock.Date, code shiftclock.ShiftCode) *model.ShiftRequest {
	t.Helper()
	req := &model.ShiftRequest{
		ShiftDate:      date,
		FlightNumber:   code,
		RequesterName:  "Ana Ruiz",
		RequesterBadge: "azul",
		RequesterEmail: "ana@avianca.com",
		CoverName:      "Luis Pérez",
		CoverBadge:     "verde",
		CoverEmail:     "luis@avianca.com",
	}
	if err := repo.ShiftRequest.Create(context.Background(), req); err != nil {
		t.Fatalf("创建申请失败: %v", err)
	}
	return req
}

// ═══════════════════════════════════════════════════════════
// Test: ShiftRequest
// ═══════════════════════════════════════════════════════════

func TestShiftRequest_CreateAndGet(t *testing.T) {
	repo, _ := newSQLiteRepo(t)
	ctx := context.Background()

	req := seedRequest(t, repo, shiftclock.NewDate(2025, time.June, 1), shiftclock.AV205)
	if req.ShiftRequestID == "" {
		t.Fatal("主键应在创建时生成")
	}

	found, err := repo.ShiftRequest.GetByID(ctx, req.ShiftRequestID)
	if err != nil {
		t.Fatalf("查询申请失败: %v", err)
	}
	if found.ShiftDate != shiftclock.NewDate(2025, time.June, 1) {
		t.Errorf("日期往返不一致: %s", found.ShiftDate)
	}
	if found.SupervisorStatus != model.StatusPending || found.Phase() != model.PhasePending {
		t.Errorf("初始状态应为 pending，实际 %s/%s", found.SupervisorStatus, found.Phase())
	}

	if _, err := repo.ShiftRequest.GetByID(ctx, "missing"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("期望 ErrRecordNotFound，实际 %v", err)
	}
}

func TestShiftRequest_MarkCoverAcceptedOnce(t *testing.T) {
	repo, _ := newSQLiteRepo(t)
	ctx := context.Background()
	req := seedRequest(t, repo, shiftclock.NewDate(2025, time.June, 1), shiftclock.AV255)

	at := time.Date(2025, 5, 30, 12, 0, 0, 0, time.UTC)
	if err := repo.ShiftRequest.MarkCoverAccepted(ctx, req.ShiftRequestID, at); err != nil {
		t.Fatalf("首次接受应成功: %v", err)
	}
	if err := repo.ShiftRequest.MarkCoverAccepted(ctx, req.ShiftRequestID, at); !errors.Is(err, pkgerrors.ErrNoRowsAffected) {
		t.Errorf("重复接受期望 ErrNoRowsAffected，实际 %v", err)
	}

	found, _ := repo.ShiftRequest.GetByID(ctx, req.ShiftRequestID)
	if found.CoverAcceptedAt == nil || !found.CoverAcceptedAt.Equal(at) {
		t.Errorf("接受时间不符: %v", found.CoverAcceptedAt)
	}
	if found.Version != 2 {
		t.Errorf("接受后版本号期望 2，实际 %d", found.Version)
	}
}

func TestShiftRequest_DecideIsCompareAndSet(t *testing.T) {
	repo, _ := newSQLiteRepo(t)
	ctx := context.Background()
	req := seedRequest(t, repo, shiftclock.NewDate(2025, time.June, 1), shiftclock.AV255)

	// 两个主管读取到同一版本
	first, _ := repo.ShiftRequest.GetByID(ctx, req.ShiftRequestID)
	second, _ := repo.ShiftRequest.GetByID(ctx, req.ShiftRequestID)

	now := time.Now().UTC()
	first.SupervisorStatus = model.StatusApproved
	first.SupervisorName = "Laura"
	first.SupervisorDecidedAt = &now
	if err := repo.ShiftRequest.Decide(ctx, first); err != nil {
		t.Fatalf("首个决定应成功: %v", err)
	}

	second.SupervisorStatus = model.StatusRejected
	second.SupervisorName = "Carlos"
	second.SupervisorComments = "sin personal"
	second.SupervisorDecidedAt = &now
	if err := repo.ShiftRequest.Decide(ctx, second); !errors.Is(err, pkgerrors.ErrOptimisticLock) {
		t.Fatalf("第二个决定期望 ErrOptimisticLock，实际 %v", err)
	}

	// 即使版本号正确，终态也不能再被改写
	found, _ := repo.ShiftRequest.GetByID(ctx, req.ShiftRequestID)
	found.SupervisorStatus = model.StatusRejected
	if err := repo.ShiftRequest.Decide(ctx, found); !errors.Is(err, pkgerrors.ErrOptimisticLock) {
		t.Errorf("终态改写期望 ErrOptimisticLock，实际 %v", err)
	}

	final, _ := repo.ShiftRequest.GetByID(ctx, req.ShiftRequestID)
	if final.SupervisorStatus != model.StatusApproved || final.SupervisorName != "Laura" {
		t.Errorf("终态应保持首个决定，实际 %s/%s", final.SupervisorStatus, final.SupervisorName)
	}
}

func TestShiftRequest_ListFiltersAndOrder(t *testing.T) {
	repo, _ := newSQLiteRepo(t)
	ctx := context.Background()

	late := seedRequest(t, repo, shiftclock.NewDate(2025, time.June, 10), shiftclock.AV627)
	early := seedRequest(t, repo, shiftclock.NewDate(2025, time.June, 2), shiftclock.AV205)
	accepted := seedRequest(t, repo, shiftclock.NewDate(2025, time.June, 20), shiftclock.AV205)
	_ = repo.ShiftRequest.MarkCoverAccepted(ctx, accepted.ShiftRequestID, time.Now())

	// 待处理：已接受的排在最前
	pending, err := repo.ShiftRequest.ListPending(ctx)
	if err != nil {
		t.Fatalf("ListPending 失败: %v", err)
	}
	if len(pending) != 3 || pending[0].ShiftRequestID != accepted.ShiftRequestID || pending[1].ShiftRequestID != early.ShiftRequestID {
		t.Fatalf("待处理排序不符: %+v", pending)
	}

	// 历史：按日期升序
	all, total, err := repo.ShiftRequest.List(ctx, repository.ShiftRequestFilter{}, 0, 0)
	if err != nil || total != 3 {
		t.Fatalf("List 期望 3 条，实际 %d (%v)", total, err)
	}
	if all[0].ShiftRequestID != early.ShiftRequestID || all[2].ShiftRequestID != accepted.ShiftRequestID {
		t.Errorf("历史排序不符")
	}

	byFlight, total, _ := repo.ShiftRequest.List(ctx, repository.ShiftRequestFilter{FlightNumber: shiftclock.AV205}, 0, 10)
	if total != 2 || len(byFlight) != 2 {
		t.Errorf("航班过滤期望 2 条，实际 %d", total)
	}

	byRange, total, _ := repo.ShiftRequest.List(ctx, repository.ShiftRequestFilter{
		From: shiftclock.NewDate(2025, time.June, 5),
		To:   shiftclock.NewDate(2025, time.June, 10),
	}, 0, 10)
	if total != 1 || byRange[0].ShiftRequestID != late.ShiftRequestID {
		t.Errorf("日期区间过滤不符: total=%d", total)
	}

	byName, total, _ := repo.ShiftRequest.List(ctx, repository.ShiftRequestFilter{RequesterName: "ANA"}, 0, 10)
	if total != 3 || len(byName) != 3 {
		t.Errorf("申请人模糊匹配期望 3 条，实际 %d", total)
	}

	paged, total, _ := repo.ShiftRequest.List(ctx, repository.ShiftRequestFilter{}, 2, 2)
	if total != 3 || len(paged) != 1 {
		t.Errorf("分页期望 total=3 len=1，实际 total=%d len=%d", total, len(paged))
	}
}

// ═══════════════════════════════════════════════════════════
// Test: AcceptanceToken
// ═══════════════════════════════════════════════════════════

func TestToken_ConsumeSingleUse(t *testing.T) {
	repo, _ := newSQLiteRepo(t)
	ctx := context.Background()
	req := seedRequest(t, repo, shiftclock.NewDate(2025, time.June, 1), shiftclock.AV205)

	now := time.Date(2025, 5, 28, 10, 0, 0, 0, time.UTC)
	tok := &model.AcceptanceToken{ShiftRequestID: req.ShiftRequestID, ExpiresAt: now.Add(24 * time.Hour), CreatedAt: now}
	if err := repo.Token.Create(ctx, tok); err != nil {
		t.Fatalf("创建令牌失败: %v", err)
	}

	if err := repo.Token.Consume(ctx, req.ShiftRequestID, tok.Token, now); err != nil {
		t.Fatalf("首次消费应成功: %v", err)
	}
	if err := repo.Token.Consume(ctx, req.ShiftRequestID, tok.Token, now); !errors.Is(err, pkgerrors.ErrNoRowsAffected) {
		t.Errorf("重复消费期望 ErrNoRowsAffected，实际 %v", err)
	}

	found, _ := repo.Token.GetByToken(ctx, tok.Token)
	if !found.Used || found.UsedAt == nil {
		t.Errorf("令牌应标记为已使用: %+v", found)
	}
}

func TestToken_ConsumeRequiresOwningRequest(t *testing.T) {
	repo, _ := newSQLiteRepo(t)
	ctx := context.Background()
	req := seedRequest(t, repo, shiftclock.NewDate(2025, time.June, 1), shiftclock.AV205)
	other := seedRequest(t, repo, shiftclock.NewDate(2025, time.June, 2), shiftclock.AV625)

	now := time.Date(2025, 5, 28, 10, 0, 0, 0, time.UTC)
	tok := &model.AcceptanceToken{ShiftRequestID: req.ShiftRequestID, ExpiresAt: now.Add(time.Hour), CreatedAt: now}
	_ = repo.Token.Create(ctx, tok)

	if err := repo.Token.Consume(ctx, other.ShiftRequestID, tok.Token, now); !errors.Is(err, pkgerrors.ErrNoRowsAffected) {
		t.Errorf("其他申请不应能消费该令牌，实际 %v", err)
	}
	found, _ := repo.Token.GetByToken(ctx, tok.Token)
	if found.Used {
		t.Error("令牌不应被标记为已使用")
	}
	if err := repo.Token.Consume(ctx, req.ShiftRequestID, tok.Token, now); err != nil {
		t.Errorf("所属申请消费应成功: %v", err)
	}
}

func TestToken_ConsumeRespectsExpiry(t *testing.T) {
	repo, _ := newSQLiteRepo(t)
	ctx := context.Background()
	req := seedRequest(t, repo, shiftclock.NewDate(2025, time.June, 1), shiftclock.AV205)

	issued := time.Date(2025, 5, 28, 10, 0, 0, 0, time.UTC)
	tok := &model.AcceptanceToken{ShiftRequestID: req.ShiftRequestID, ExpiresAt: issued.Add(24 * time.Hour), CreatedAt: issued}
	_ = repo.Token.Create(ctx, tok)

	late := issued.Add(24*time.Hour + time.Second)
	if err := repo.Token.Consume(ctx, req.ShiftRequestID, tok.Token, late); !errors.Is(err, pkgerrors.ErrNoRowsAffected) {
		t.Errorf("过期令牌消费期望失败，实际 %v", err)
	}
	// 恰好在过期时刻仍然有效
	if err := repo.Token.Consume(ctx, req.ShiftRequestID, tok.Token, issued.Add(24*time.Hour)); err != nil {
		t.Errorf("过期时刻当刻应可消费: %v", err)
	}
}

func TestToken_RevokeActive(t *testing.T) {
	repo, _ := newSQLiteRepo(t)
	ctx := context.Background()
	req := seedRequest(t, repo, shiftclock.NewDate(2025, time.June, 1), shiftclock.AV205)

	now := time.Date(2025, 5, 28, 10, 0, 0, 0, time.UTC)
	old := &model.AcceptanceToken{ShiftRequestID: req.ShiftRequestID, ExpiresAt: now.Add(time.Hour), CreatedAt: now}
	used := &model.AcceptanceToken{ShiftRequestID: req.ShiftRequestID, ExpiresAt: now.Add(time.Hour), CreatedAt: now}
	_ = repo.Token.Create(ctx, old)
	_ = repo.Token.Create(ctx, used)
	_ = repo.Token.Consume(ctx, req.ShiftRequestID, used.Token, now)

	n, err := repo.Token.RevokeActive(ctx, req.ShiftRequestID, now)
	if err != nil || n != 1 {
		t.Fatalf("期望作废 1 个令牌，实际 %d (%v)", n, err)
	}
	if err := repo.Token.Consume(ctx, req.ShiftRequestID, old.Token, now); !errors.Is(err, pkgerrors.ErrNoRowsAffected) {
		t.Errorf("已作废令牌不应可消费，实际 %v", err)
	}

	list, _ := repo.Token.ListByRequest(ctx, req.ShiftRequestID)
	if len(list) != 2 {
		t.Errorf("期望 2 个令牌，实际 %d", len(list))
	}
}

// ═══════════════════════════════════════════════════════════
// Test: Transaction
// ═══════════════════════════════════════════════════════════

func TestTransaction_RollbackAndCommit(t *testing.T) {
	repo, _ := newSQLiteRepo(t)
	ctx := context.Background()

	tx, err := repo.BeginTx(ctx)
	if err != nil {
		t.Fatalf("BeginTx 失败: %v", err)
	}
	rolledBack := seedRequest(t, repo.WithTx(tx), shiftclock.NewDate(2025, time.June, 1), shiftclock.AV205)
	tx.Rollback()

	if _, err := repo.ShiftRequest.GetByID(ctx, rolledBack.ShiftRequestID); err == nil {
		t.Fatal("期望回滚后查不到申请，但实际查到了")
	}

	tx, _ = repo.BeginTx(ctx)
	committed := seedRequest(t, repo.WithTx(tx), shiftclock.NewDate(2025, time.June, 1), shiftclock.AV205)
	if err := tx.Commit().Error; err != nil {
		t.Fatalf("Commit 失败: %v", err)
	}
	if _, err := repo.ShiftRequest.GetByID(ctx, committed.ShiftRequestID); err != nil {
		t.Errorf("提交后查询申请失败: %v", err)
	}
}

func TestTransaction_NilDBIsNoop(t *testing.T) {
	repo := &repository.Repository{}
	tx, err := repo.BeginTx(context.Background())
	if tx != nil || err != nil {
		t.Fatalf("未绑定连接时期望 (nil, nil)，实际 (%v, %v)", tx, err)
	}
	if repo.WithTx(nil) != repo {
		t.Error("WithTx(nil) 应返回自身")
	}
}

// ═══════════════════════════════════════════════════════════
// Test: Employee
// ═══════════════════════════════════════════════════════════

func TestEmployee_ActiveUniquenessAndSoftDelete(t *testing.T) {
	repo, _ := newSQLiteRepo(t)
	ctx := context.Background()

	emp := &model.Employee{FullName: "Ana Ruiz", RaicColor: "Rojo", Email: "ana@avianca.com", IsActive: true}
	if err := repo.Employee.Create(ctx, emp); err != nil {
		t.Fatalf("创建员工失败: %v", err)
	}

	nameTaken, emailTaken, err := repo.Employee.ActiveConflicts(ctx, " ana ruiz", "ANA@avianca.com", "")
	if err != nil || !nameTaken || !emailTaken {
		t.Fatalf("期望姓名与邮箱均冲突，实际 %v %v (%v)", nameTaken, emailTaken, err)
	}

	// 排除自身时不冲突
	nameTaken, emailTaken, _ = repo.Employee.ActiveConflicts(ctx, "Ana Ruiz", "ana@avianca.com", emp.EmployeeID)
	if nameTaken || emailTaken {
		t.Error("排除自身后不应冲突")
	}

	if err := repo.Employee.SetActive(ctx, emp.EmployeeID, false); err != nil {
		t.Fatalf("停用员工失败: %v", err)
	}
	nameTaken, emailTaken, _ = repo.Employee.ActiveConflicts(ctx, "Ana Ruiz", "ana@avianca.com", "")
	if nameTaken || emailTaken {
		t.Error("停用员工不应参与唯一性检查")
	}

	active, _ := repo.Employee.List(ctx, true)
	inactive, _ := repo.Employee.List(ctx, false)
	if len(active) != 0 || len(inactive) != 1 {
		t.Errorf("期望 0 在职 / 1 停用，实际 %d / %d", len(active), len(inactive))
	}

	if err := repo.Employee.SetActive(ctx, "missing", true); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("期望 ErrRecordNotFound，实际 %v", err)
	}
}
