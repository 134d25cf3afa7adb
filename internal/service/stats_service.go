package service

import (
	"smartqa_backend/internal/model"
	"smartqa_backend/internal/repository"
	"smartqa_backend/internal/util"
	"time"
)

type StatsService struct {
	UserRepo   *repository.UserRepository
	TestRepo   *repository.TestRepository
	ResultRepo *repository.ResultRepository
	DocRepo    *repository.DocumentRepository
}

func NewStatsService(userRepo *repository.UserRepository, testRepo *repository.TestRepository, resultRepo *repository.ResultRepository, docRepo *repository.DocumentRepository) *StatsService {
	return &StatsService{UserRepo: userRepo, TestRepo: testRepo, ResultRepo: resultRepo, DocRepo: docRepo}
}

type UserStats struct {
	TotalTests     int64   `json:"total_tests"`
	CompletedTests int64   `json:"completed_tests"`
	AverageScore   float64 `json:"average_score"`
	TotalDocuments int64   `json:"total_documents"`
}

// PersonalDashboard /api/stats 的返回结构
type PersonalDashboard struct {
	TotalDocuments int64   `json:"totalDocuments"`
	TotalSize      string  `json:"totalSize"`
	PDFFiles       int64   `json:"pdfFiles"`
	OtherFiles     int64   `json:"otherFiles"`
	TestsTaken     int64   `json:"testsTaken"`
	AverageScore   float64 `json:"averageScore"`
}

type AdminUserStats struct {
	TotalUsers        int64 `json:"total_users"`
	ActiveUsers       int64 `json:"active_users"`
	NewUsersThisMonth int64 `json:"new_users_this_month"`
	Students          int64 `json:"students"`
	Admins            int64 `json:"admins"`
}

type AdminTestStats struct {
	TotalTests     int64   `json:"total_tests"`
	ActiveTests    int64   `json:"active_tests"`
	TotalQuestions int64   `json:"total_questions"`
	TotalAttempts  int64   `json:"total_attempts"`
	FlaggedResults int64   `json:"flagged_results"`
	AverageScore   float64 `json:"average_score"`
}

type AdminDocumentStats struct {
	TotalDocuments     int64            `json:"total_documents"`
	ProcessedDocuments int64            `json:"processed_documents"`
	TotalWords         int64            `json:"total_words"`
	DocumentsByType    map[string]int64 `json:"documents_by_type"`
}

type DashboardStats struct {
	Users     AdminUserStats     `json:"users"`
	Tests     AdminTestStats     `json:"tests"`
	Documents AdminDocumentStats `json:"documents"`
}

func (s *StatsService) UserStats(userID uint) (*UserStats, error) {
	active, err := s.TestRepo.CountActive()
	if err != nil {
		return nil, err
	}
	scores, err := s.ResultRepo.UserStats(userID)
	if err != nil {
		return nil, err
	}
	docs, err := s.DocRepo.CountByUser(userID)
	if err != nil {
		return nil, err
	}
	return &UserStats{
		TotalTests:     active,
		CompletedTests: scores.Completed,
		AverageScore:   util.Round1(scores.AverageScore),
		TotalDocuments: docs,
	}, nil
}

func (s *StatsService) Personal(owner Owner) (*PersonalDashboard, error) {
	docs, err := s.DocRepo.Stats(owner.ID, owner.Admin)
	if err != nil {
		return nil, err
	}
	scores, err := s.ResultRepo.UserStats(owner.ID)
	if err != nil {
		return nil, err
	}
	return &PersonalDashboard{
		TotalDocuments: docs.TotalDocuments,
		TotalSize:      util.FormatFileSize(docs.TotalSize),
		PDFFiles:       docs.PDFFiles,
		OtherFiles:     docs.TotalDocuments - docs.PDFFiles,
		TestsTaken:     scores.Completed,
		AverageScore:   util.Round1(scores.AverageScore),
	}, nil
}

// startOfMonth 本地时区当月第一天零点
func startOfMonth(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
}

func (s *StatsService) Dashboard() (*DashboardStats, error) {
	var (
		out DashboardStats
		err error
	)
	now := time.Now()

	steps := []func() error{
		func() (e error) { out.Users.TotalUsers, e = s.UserRepo.Count(); return },
		func() (e error) { out.Users.ActiveUsers, e = s.UserRepo.CountActiveSince(now.AddDate(0, 0, -30)); return },
		func() (e error) { out.Users.NewUsersThisMonth, e = s.UserRepo.CountCreatedSince(startOfMonth(now)); return },
		func() (e error) { out.Users.Students, e = s.UserRepo.CountByRole(model.Student); return },
		func() (e error) { out.Users.Admins, e = s.UserRepo.CountByRole(model.Admin); return },
		func() (e error) { out.Tests.TotalTests, e = s.TestRepo.Count(); return },
		func() (e error) { out.Tests.ActiveTests, e = s.TestRepo.CountActive(); return },
		func() (e error) { out.Tests.TotalQuestions, e = s.TestRepo.CountQuestionsTotal(); return },
		func() (e error) { out.Tests.TotalAttempts, e = s.ResultRepo.Count(); return },
		func() (e error) { out.Tests.FlaggedResults, e = s.ResultRepo.CountFlagged(); return },
		func() (e error) { out.Tests.AverageScore, e = s.ResultRepo.AverageScore(); return },
		func() (e error) { out.Documents.TotalDocuments, e = s.DocRepo.Count(); return },
		func() (e error) { out.Documents.ProcessedDocuments, e = s.DocRepo.CountProcessed(); return },
		func() (e error) { out.Documents.TotalWords, e = s.DocRepo.TotalWords(); return },
		func() (e error) { out.Documents.DocumentsByType, e = s.DocRepo.CountByType(); return },
	}
	for _, step := range steps {
		if err = step(); err != nil {
			return nil, err
		}
	}
	out.Tests.AverageScore = util.Round1(out.Tests.AverageScore)
	return &out, nil
}
