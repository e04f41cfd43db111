//go:build integration

package repository_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"clientbook/backend/internal/model"
	"clientbook/backend/internal/repository"
	"clientbook/backend/pkg/database"
)

// ═══════════════════════════════════════════════════════════
// Test Setup
// ═══════════════════════════════════════════════════════════

var testDB *gorm.DB

func TestMain(m *testing.M) {
	dsn := os.Getenv("CLIENTBOOK_TEST_DSN")
	if dsn == "" {
		dsn = "host=localhost port=5433 user=clientbook password=clientbook_password dbname=clientbook_test sslmode=disable TimeZone=UTC"
	}

	var err error
	testDB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "无法连接测试数据库: %v\n", err)
		os.Exit(1)
	}

	// 应用真实迁移文件建表，外键行为与生产一致
	sqlDB, err := testDB.DB()
	if err != nil {
		fmt.Fprintf(os.Stderr, "获取底层 sql.DB 失败: %v\n", err)
		os.Exit(1)
	}
	if err := database.RunMigrations(sqlDB, zap.NewNop()); err != nil {
		fmt.Fprintf(os.Stderr, "执行迁移失败: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()
	os.Exit(code)
}

// setupTestClient 创建测试客户并返回清理函数
func setupTestClient(t *testing.T) (client *model.Client, cleanup func()) {
	t.Helper()
	ctx := context.Background()

	client = &model.Client{
		Name:  fmt.Sprintf("测试客户-%d", time.Now().UnixNano()),
		Email: fmt.Sprintf("client%d@example.com", time.Now().UnixNano()),
	}
	if err := testDB.WithContext(ctx).Create(client).Error; err != nil {
		t.Fatalf("创建客户失败: %v", err)
	}

	cleanup = func() {
		testDB.Where("client_id = ?", client.ClientID).Delete(&model.Client{})
	}
	return
}

// createSeries 创建"根 + n 个子预约"的系列，返回根和子预约列表
func createSeries(t *testing.T, repo *repository.Repository, clientID string, n int) (*model.Appointment, []model.Appointment) {
	t.Helper()
	ctx := context.Background()

	anchor := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	rule := "FREQ=WEEKLY;INTERVAL=1;COUNT=" + fmt.Sprint(n+1)

	root := &model.Appointment{
		Title:          "每周复诊",
		Type:           model.TypeFollowUp,
		Status:         model.StatusScheduled,
		StartTime:      anchor,
		EndTime:        anchor.Add(time.Hour),
		IsRecurring:    true,
		RecurrenceRule: &rule,
		ClientID:       &clientID,
	}
	if err := repo.Appointment.Create(ctx, root); err != nil {
		t.Fatalf("创建根预约失败: %v", err)
	}

	children := make([]model.Appointment, n)
	for i := range children {
		start := anchor.AddDate(0, 0, 7*(i+1))
		children[i] = model.Appointment{
			Title:          root.Title,
			Type:           root.Type,
			Status:         model.StatusScheduled,
			StartTime:      start,
			EndTime:        start.Add(time.Hour),
			IsRecurring:    true,
			RecurrenceRule: &rule,
			ParentID:       &root.AppointmentID,
			ClientID:       &clientID,
		}
	}
	if err := repo.Appointment.BatchCreate(ctx, children); err != nil {
		t.Fatalf("批量创建子预约失败: %v", err)
	}
	return root, children
}

func cleanupSeries(rootID string) {
	testDB.Where("appointment_id = ? OR parent_id = ?", rootID, rootID).Delete(&model.Appointment{})
}

// ═══════════════════════════════════════════════════════════
// Test: Series Predicate (root + children in one statement)
// ═══════════════════════════════════════════════════════════

func TestUpdateSeries_HitsRootAndChildren(t *testing.T) {
	client, cleanup := setupTestClient(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	root, _ := createSeries(t, repo, client.ClientID, 3)
	defer cleanupSeries(root.AppointmentID)

	// 系列外的独立预约不应被命中
	other := &model.Appointment{
		Title:     "独立会议",
		Type:      model.TypeMeeting,
		Status:    model.StatusScheduled,
		StartTime: time.Date(2026, 2, 1, 14, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2026, 2, 1, 15, 0, 0, 0, time.UTC),
	}
	if err := repo.Appointment.Create(ctx, other); err != nil {
		t.Fatalf("创建独立预约失败: %v", err)
	}
	defer testDB.Where("appointment_id = ?", other.AppointmentID).Delete(&model.Appointment{})

	rows, err := repo.Appointment.UpdateSeries(ctx, root.AppointmentID, map[string]interface{}{
		"status": model.StatusCancelled,
	})
	if err != nil {
		t.Fatalf("UpdateSeries 失败: %v", err)
	}
	if rows != 4 {
		t.Errorf("期望命中 4 行（根 + 3 子），得到 %d", rows)
	}

	// 根和子预约均已取消
	got, err := repo.Appointment.GetByID(ctx, root.AppointmentID)
	if err != nil {
		t.Fatalf("查询根预约失败: %v", err)
	}
	if got.Status != model.StatusCancelled {
		t.Errorf("根预约状态应为 cancelled，得到 %s", got.Status)
	}
	children, err := repo.Appointment.ListByParent(ctx, root.AppointmentID)
	if err != nil {
		t.Fatalf("ListByParent 失败: %v", err)
	}
	for _, c := range children {
		if c.Status != model.StatusCancelled {
			t.Errorf("子预约 %s 状态应为 cancelled，得到 %s", c.AppointmentID, c.Status)
		}
	}

	// 独立预约未被波及
	untouched, _ := repo.Appointment.GetByID(ctx, other.AppointmentID)
	if untouched.Status != model.StatusScheduled {
		t.Errorf("独立预约不应被系列更新命中，得到状态 %s", untouched.Status)
	}
}

func TestDeleteSeries_RemovesWholeTree(t *testing.T) {
	client, cleanup := setupTestClient(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	root, _ := createSeries(t, repo, client.ClientID, 4)
	defer cleanupSeries(root.AppointmentID)

	rows, err := repo.Appointment.DeleteSeries(ctx, root.AppointmentID)
	if err != nil {
		t.Fatalf("DeleteSeries 失败: %v", err)
	}
	if rows != 5 {
		t.Errorf("期望删除 5 行（根 + 4 子），得到 %d", rows)
	}

	if _, err := repo.Appointment.GetByID(ctx, root.AppointmentID); err == nil {
		t.Fatal("删除后根预约应查不到")
	}
	children, err := repo.Appointment.ListByParent(ctx, root.AppointmentID)
	if err != nil {
		t.Fatalf("ListByParent 失败: %v", err)
	}
	if len(children) != 0 {
		t.Errorf("删除后子预约应为 0，得到 %d", len(children))
	}
}

func TestDeleteByID_RootKeepsChildren(t *testing.T) {
	client, cleanup := setupTestClient(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	root, children := createSeries(t, repo, client.ClientID, 3)
	defer func() {
		for _, c := range children {
			testDB.Where("appointment_id = ?", c.AppointmentID).Delete(&model.Appointment{})
		}
		cleanupSeries(root.AppointmentID)
	}()

	// 点删除根：无论系列多大都只命中 1 行
	rows, err := repo.Appointment.DeleteByID(ctx, root.AppointmentID)
	if err != nil {
		t.Fatalf("DeleteByID 失败: %v", err)
	}
	if rows != 1 {
		t.Errorf("点删除根预约期望命中 1 行，得到 %d", rows)
	}

	// 子预约存活且转为独立根（parent_id 已置空）
	for _, c := range children {
		got, err := repo.Appointment.GetByID(ctx, c.AppointmentID)
		if err != nil {
			t.Fatalf("根被点删后子预约 %s 应存活: %v", c.AppointmentID, err)
		}
		if got.ParentID != nil {
			t.Errorf("子预约 %s 的 parent_id 应已置空，得到 %v", c.AppointmentID, *got.ParentID)
		}
	}
}

func TestDeleteByID_ChildKeepsSiblings(t *testing.T) {
	client, cleanup := setupTestClient(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	root, children := createSeries(t, repo, client.ClientID, 3)
	defer cleanupSeries(root.AppointmentID)

	rows, err := repo.Appointment.DeleteByID(ctx, children[1].AppointmentID)
	if err != nil {
		t.Fatalf("DeleteByID 失败: %v", err)
	}
	if rows != 1 {
		t.Errorf("点删除期望命中 1 行，得到 %d", rows)
	}

	remaining, err := repo.Appointment.ListByParent(ctx, root.AppointmentID)
	if err != nil {
		t.Fatalf("ListByParent 失败: %v", err)
	}
	if len(remaining) != 2 {
		t.Errorf("删除单个子预约后应剩 2 个兄弟，得到 %d", len(remaining))
	}
	if _, err := repo.Appointment.GetByID(ctx, root.AppointmentID); err != nil {
		t.Errorf("根预约应保留: %v", err)
	}
}

// ═══════════════════════════════════════════════════════════
// Test: List Filters & Ordering
// ═══════════════════════════════════════════════════════════

func TestList_RootsOnlyAndTimeWindow(t *testing.T) {
	client, cleanup := setupTestClient(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	root, _ := createSeries(t, repo, client.ClientID, 3)
	defer cleanupSeries(root.AppointmentID)

	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	// RootsOnly: 系列折叠为根一条
	roots, total, err := repo.Appointment.List(ctx, repository.AppointmentFilter{
		ClientID:  client.ClientID,
		From:      &from,
		To:        &to,
		RootsOnly: true,
	}, 0, 0)
	if err != nil {
		t.Fatalf("List 失败: %v", err)
	}
	if total != 1 || len(roots) != 1 {
		t.Fatalf("RootsOnly 期望 1 条根预约，得到 total=%d len=%d", total, len(roots))
	}
	if roots[0].AppointmentID != root.AppointmentID {
		t.Errorf("根预约 ID 不匹配")
	}

	// 不折叠: 根 + 3 子共 4 条，按 start_time 升序
	all, total, err := repo.Appointment.List(ctx, repository.AppointmentFilter{
		ClientID: client.ClientID,
		From:     &from,
		To:       &to,
	}, 0, 0)
	if err != nil {
		t.Fatalf("List 失败: %v", err)
	}
	if total != 4 {
		t.Errorf("期望 4 条，得到 %d", total)
	}
	for i := 1; i < len(all); i++ {
		if all[i].StartTime.Before(all[i-1].StartTime) {
			t.Errorf("列表应按 start_time 升序")
		}
	}
}

func TestList_Pagination(t *testing.T) {
	client, cleanup := setupTestClient(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	root, _ := createSeries(t, repo, client.ClientID, 5)
	defer cleanupSeries(root.AppointmentID)

	page, total, err := repo.Appointment.List(ctx, repository.AppointmentFilter{
		ClientID: client.ClientID,
	}, 2, 2)
	if err != nil {
		t.Fatalf("List 失败: %v", err)
	}
	if total != 6 {
		t.Errorf("期望 total=6，得到 %d", total)
	}
	if len(page) != 2 {
		t.Errorf("期望本页 2 条，得到 %d", len(page))
	}
}

func TestListCalendarRoots_SeriesSpanningFrom(t *testing.T) {
	client, cleanup := setupTestClient(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	// 系列锚定于 2026-01-05，子预约延伸到 1 月底
	root, _ := createSeries(t, repo, client.ClientID, 3)
	defer cleanupSeries(root.AppointmentID)

	// 范围外的独立预约
	standalone := &model.Appointment{
		Title:     "早期独立预约",
		Type:      model.TypeOther,
		Status:    model.StatusScheduled,
		StartTime: time.Date(2026, 1, 2, 9, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC),
		ClientID:  &client.ClientID,
	}
	if err := repo.Appointment.Create(ctx, standalone); err != nil {
		t.Fatalf("创建独立预约失败: %v", err)
	}
	defer testDB.Where("appointment_id = ?", standalone.AppointmentID).Delete(&model.Appointment{})

	// 范围从 1 月中旬开始：根在范围前，但系列仍有发生落在范围内
	from := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC)

	roots, err := repo.Appointment.ListCalendarRoots(ctx, from, to)
	if err != nil {
		t.Fatalf("ListCalendarRoots 失败: %v", err)
	}

	var ids []string
	for _, r := range roots {
		if r.ClientID != nil && *r.ClientID == client.ClientID {
			ids = append(ids, r.AppointmentID)
		}
	}
	if len(ids) != 1 || ids[0] != root.AppointmentID {
		t.Fatalf("期望只命中系列根 %s，得到 %v", root.AppointmentID, ids)
	}
}

// ═══════════════════════════════════════════════════════════
// Test: Batch & Children
// ═══════════════════════════════════════════════════════════

func TestCountChildren(t *testing.T) {
	client, cleanup := setupTestClient(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	root, _ := createSeries(t, repo, client.ClientID, 4)
	defer cleanupSeries(root.AppointmentID)

	count, err := repo.Appointment.CountChildren(ctx, root.AppointmentID)
	if err != nil {
		t.Fatalf("CountChildren 失败: %v", err)
	}
	if count != 4 {
		t.Errorf("期望 4 个子预约，得到 %d", count)
	}
}

func TestBatchCreate_EmptySliceIsNoop(t *testing.T) {
	repo := repository.NewRepository(testDB)
	if err := repo.Appointment.BatchCreate(context.Background(), nil); err != nil {
		t.Fatalf("空切片 BatchCreate 不应报错: %v", err)
	}
}

func TestGetByID_PreloadsClient(t *testing.T) {
	client, cleanup := setupTestClient(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	appt := &model.Appointment{
		Title:     "初诊咨询",
		Type:      model.TypeConsultation,
		Status:    model.StatusScheduled,
		StartTime: time.Date(2026, 1, 10, 10, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2026, 1, 10, 11, 0, 0, 0, time.UTC),
		ClientID:  &client.ClientID,
	}
	if err := repo.Appointment.Create(ctx, appt); err != nil {
		t.Fatalf("创建预约失败: %v", err)
	}
	defer testDB.Where("appointment_id = ?", appt.AppointmentID).Delete(&model.Appointment{})

	got, err := repo.Appointment.GetByID(ctx, appt.AppointmentID)
	if err != nil {
		t.Fatalf("GetByID 失败: %v", err)
	}
	if got.Client == nil {
		t.Fatal("期望预加载 Client 关联")
	}
	if got.Client.Name != client.Name {
		t.Errorf("客户名不匹配: expected %s, got %s", client.Name, got.Client.Name)
	}
}

// ═══════════════════════════════════════════════════════════
// Test: Client Repository
// ═══════════════════════════════════════════════════════════

func TestClient_SearchByKeyword(t *testing.T) {
	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	tag := fmt.Sprintf("%d", time.Now().UnixNano())
	c := &model.Client{
		Name:  "张三-" + tag,
		Email: "zhangsan" + tag + "@example.com",
	}
	if err := repo.Client.Create(ctx, c); err != nil {
		t.Fatalf("创建客户失败: %v", err)
	}
	defer testDB.Where("client_id = ?", c.ClientID).Delete(&model.Client{})

	list, total, err := repo.Client.List(ctx, tag, 0, 10)
	if err != nil {
		t.Fatalf("List 失败: %v", err)
	}
	if total != 1 || len(list) != 1 {
		t.Fatalf("关键字搜索期望 1 条，得到 total=%d len=%d", total, len(list))
	}
	if list[0].ClientID != c.ClientID {
		t.Errorf("搜索结果 ID 不匹配")
	}
}
