package logic

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/blues/cfledger/internal/config"
	"github.com/blues/cfledger/internal/ledger"
	"github.com/blues/cfledger/internal/model"
	"github.com/blues/cfledger/internal/repository"
	"gorm.io/gorm"
)

const (
	creatorAddr = "0x00000000000000000000000000000000000000C0"
	aliceAddr   = "0x00000000000000000000000000000000000000A1"
	bobAddr     = "0x00000000000000000000000000000000000000B1"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := repository.Init(config.DatabaseConfig{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "logic.db")})
	if err != nil {
		t.Fatalf("init db: %v", err)
	}
	return db
}

func seedProject(t *testing.T, db *gorm.DB, id int64) {
	t.Helper()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	err := NewProjectLogic(db).CreateProject(&model.ProjectModel{
		Id:             id,
		Title:          "Solar Farm",
		Description:    "Community solar",
		GoalAmount:     "1000000000000000000",
		StartTime:      now,
		Deadline:       now.Add(30 * 24 * time.Hour),
		CreatorAddress: creatorAddr,
	})
	if err != nil {
		t.Fatalf("seed project: %v", err)
	}
}

func contribution(id int64, addr, amount, total, tx string, index int64) *model.ContributeRecordModel {
	return &model.ContributeRecordModel{
		ProjectId:   id,
		Address:     addr,
		Amount:      amount,
		TotalAmount: total,
		TxHash:      tx,
		LogIndex:    index,
		BlockNum:    1,
	}
}

func TestCreateProjectIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	seedProject(t, db, 1)
	seedProject(t, db, 1)

	projects, total, err := NewProjectLogic(db).GetProjects("", "", 1, 10)
	if err != nil {
		t.Fatalf("get projects: %v", err)
	}
	if total != 1 || len(projects) != 1 {
		t.Fatalf("expected one project, got %d", total)
	}
	if projects[0].Status != model.ProjectStatusActive || projects[0].CurrentAmount != "0" {
		t.Fatalf("unexpected defaults %+v", projects[0])
	}
}

func TestGetProjectNotFound(t *testing.T) {
	db := newTestDB(t)
	_, err := NewProjectLogic(db).GetProject(42)
	if !errors.Is(err, ledger.ErrProjectNotFound) {
		t.Fatalf("expected ErrProjectNotFound, got %v", err)
	}
	if err := NewProjectLogic(db).UpdateProjectStatus(42, model.ProjectStatusFailed); !errors.Is(err, ledger.ErrProjectNotFound) {
		t.Fatalf("expected ErrProjectNotFound on status update, got %v", err)
	}
}

func TestContributionUpdatesProjection(t *testing.T) {
	db := newTestDB(t)
	seedProject(t, db, 1)
	records := NewContributeRecordLogic(db)

	steps := []*model.ContributeRecordModel{
		contribution(1, aliceAddr, "300", "300", "0x01", 0),
		contribution(1, bobAddr, "400", "700", "0x02", 0),
		contribution(1, aliceAddr, "100", "800", "0x03", 0),
	}
	for _, rec := range steps {
		if err := records.CreateContributeRecord(rec); err != nil {
			t.Fatalf("create record: %v", err)
		}
	}
	// 重复投递
	if err := records.CreateContributeRecord(contribution(1, bobAddr, "400", "700", "0x02", 0)); err != nil {
		t.Fatalf("duplicate record: %v", err)
	}

	project, err := NewProjectLogic(db).GetProject(1)
	if err != nil {
		t.Fatalf("get project: %v", err)
	}
	if project.CurrentAmount != "800" {
		t.Fatalf("expected current 800, got %s", project.CurrentAmount)
	}
	if project.ContributorCount != 2 {
		t.Fatalf("expected 2 contributors, got %d", project.ContributorCount)
	}

	list, total, err := records.GetProjectContributeRecords(1, 1, 2)
	if err != nil {
		t.Fatalf("list records: %v", err)
	}
	if total != 3 || len(list) != 2 {
		t.Fatalf("expected page of 2 from 3, got %d of %d", len(list), total)
	}
	if list[0].TxHash != "0x01" {
		t.Fatalf("expected chronological order, got %s first", list[0].TxHash)
	}

	mine, total, err := records.GetAddressContributeRecords(aliceAddr, 1, 10)
	if err != nil {
		t.Fatalf("address records: %v", err)
	}
	if total != 2 || len(mine) != 2 {
		t.Fatalf("expected 2 records for alice, got %d", total)
	}
}

func TestContributionRequiresProject(t *testing.T) {
	db := newTestDB(t)
	err := NewContributeRecordLogic(db).CreateContributeRecord(contribution(9, aliceAddr, "1", "1", "0x01", 0))
	if !errors.Is(err, ledger.ErrProjectNotFound) {
		t.Fatalf("expected ErrProjectNotFound, got %v", err)
	}
}

func TestRefundReducesCurrentAmountOnce(t *testing.T) {
	db := newTestDB(t)
	seedProject(t, db, 1)
	if err := NewContributeRecordLogic(db).CreateContributeRecord(contribution(1, aliceAddr, "300", "300", "0x01", 0)); err != nil {
		t.Fatalf("contribute: %v", err)
	}

	refunds := NewRefundRecordLogic(db)
	refund := func() *model.RefundRecordModel {
		return &model.RefundRecordModel{ProjectId: 1, Address: aliceAddr, Amount: "300", TxHash: "0x09", LogIndex: 1, BlockNum: 4}
	}
	if err := refunds.CreateRefundRecord(refund()); err != nil {
		t.Fatalf("refund: %v", err)
	}
	if err := refunds.CreateRefundRecord(refund()); err != nil {
		t.Fatalf("duplicate refund: %v", err)
	}

	project, _ := NewProjectLogic(db).GetProject(1)
	if project.CurrentAmount != "0" {
		t.Fatalf("expected current 0, got %s", project.CurrentAmount)
	}
	list, total, err := refunds.GetProjectRefunds(1, 1, 10)
	if err != nil {
		t.Fatalf("list refunds: %v", err)
	}
	if total != 1 || list[0].Status != model.RefundStatusSuccess {
		t.Fatalf("expected one successful refund, got %d", total)
	}
}

func TestSettlementMarksWithdrawn(t *testing.T) {
	db := newTestDB(t)
	seedProject(t, db, 1)
	settlements := NewSettlementRecordLogic(db)

	if got, err := settlements.GetProjectSettlement(1); err != nil || got != nil {
		t.Fatalf("expected no settlement, got %v %v", got, err)
	}
	err := settlements.CreateSettlement(&model.SettlementRecordModel{
		ProjectId:     1,
		TotalAmount:   "1000",
		PlatformFee:   "25",
		CreatorAmount: "975",
		TxHash:        "0x0a",
	})
	if err != nil {
		t.Fatalf("settle: %v", err)
	}

	got, err := settlements.GetProjectSettlement(1)
	if err != nil || got == nil {
		t.Fatalf("expected settlement, got %v %v", got, err)
	}
	if got.SettlementType != model.SettlementTypeSuccess || got.PlatformFee != "25" {
		t.Fatalf("unexpected settlement %+v", got)
	}
	project, _ := NewProjectLogic(db).GetProject(1)
	if project.Status != model.ProjectStatusWithdrawn {
		t.Fatalf("expected withdrawn, got %s", project.Status)
	}
}

func TestProjectStats(t *testing.T) {
	db := newTestDB(t)
	projects := NewProjectLogic(db)
	seedProject(t, db, 1)
	seedProject(t, db, 2)
	seedProject(t, db, 3)
	if err := projects.UpdateProjectStatus(2, model.ProjectStatusFailed); err != nil {
		t.Fatalf("update status: %v", err)
	}
	if err := NewContributeRecordLogic(db).CreateContributeRecord(contribution(1, aliceAddr, "10", "10", "0x01", 0)); err != nil {
		t.Fatalf("contribute: %v", err)
	}

	stats, err := projects.GetAllProjectStats()
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats["totalProjects"].(int64) != 3 {
		t.Fatalf("expected 3 projects, got %v", stats["totalProjects"])
	}
	if stats["activeProjects"].(int64) != 2 || stats["failedProjects"].(int64) != 1 {
		t.Fatalf("unexpected status counts %v", stats)
	}
	if stats["totalContributors"].(int64) != 1 {
		t.Fatalf("expected 1 contributor, got %v", stats["totalContributors"])
	}

	failed, total, err := projects.GetProjects(string(model.ProjectStatusFailed), "", 1, 10)
	if err != nil || total != 1 || failed[0].Id != 2 {
		t.Fatalf("expected project 2 filtered by status, got %v %d", err, total)
	}
}

func TestEventLogic(t *testing.T) {
	db := newTestDB(t)
	events := NewEventLogic(db)

	ev := func(tx string, index, block int64, name string) *model.EventModel {
		return &model.EventModel{
			ContractAddress: "0x00000000000000000000000000000000000cf1ed",
			ContractName:    "crowdfunding",
			EventName:       name,
			ProjectId:       1,
			TxHash:          tx,
			BlockNum:        block,
			LogIndex:        index,
		}
	}

	if err := events.CreateEvent(ev("0x02", 0, 2, ledger.EventContributionMade)); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := events.CreateEvent(ev("0x01", 0, 1, ledger.EventProjectCreated)); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := events.CreateEvent(ev("0x01", 0, 1, ledger.EventProjectCreated)); !errors.Is(err, ErrEventExists) {
		t.Fatalf("expected ErrEventExists, got %v", err)
	}
	if err := events.CreateEvent(&model.EventModel{}); err == nil {
		t.Fatalf("expected validation error")
	}

	list, total, err := events.GetEvents(1, "", 1, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 2 || list[0].BlockNum != 1 {
		t.Fatalf("expected block order, got %+v", list)
	}

	found, err := events.GetEventByPosition("0x02", 0)
	if err != nil || found == nil {
		t.Fatalf("expected event at position, got %v %v", found, err)
	}
	if missing, err := events.GetEventByPosition("0x03", 0); err != nil || missing != nil {
		t.Fatalf("expected nil for missing event, got %v %v", missing, err)
	}
	if err := events.UpdateEventProcessed(found.Id, true); err != nil {
		t.Fatalf("mark processed: %v", err)
	}

	stats, err := events.GetEventStatistics(0)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats["processed_events"].(int64) != 1 || stats["pending_events"].(int64) != 1 {
		t.Fatalf("unexpected stats %v", stats)
	}
	if block, err := events.GetLastProcessedBlock(); err != nil || block != 2 {
		t.Fatalf("expected last block 2, got %d %v", block, err)
	}
}

func TestNormalizePage(t *testing.T) {
	tests := []struct {
		page, size             int
		wantPage, wantSize, at int
	}{
		{0, 0, 1, defaultPageSize, 0},
		{3, 20, 3, 20, 40},
		{1, 1000, 1, maxPageSize, 0},
	}
	for _, tt := range tests {
		page, size, offset := normalizePage(tt.page, tt.size)
		if page != tt.wantPage || size != tt.wantSize || offset != tt.at {
			t.Fatalf("normalizePage(%d, %d): expected %d/%d/%d, got %d/%d/%d",
				tt.page, tt.size, tt.wantPage, tt.wantSize, tt.at, page, size, offset)
		}
	}
}
