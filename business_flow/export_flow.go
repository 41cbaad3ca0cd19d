// Package businessflow contains the core business logic for tariff spreadsheet export
package businessflow

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hotelops/tarifario/app/dto"
	"github.com/hotelops/tarifario/config"
	"github.com/hotelops/tarifario/models"
	"github.com/hotelops/tarifario/repository"
	"github.com/hotelops/tarifario/utils"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// ExportFlow turns approved recommendations into a tariff spreadsheet and
// marks each written record exported in the same pass.
type ExportFlow interface {
	ExportTariffs(ctx context.Context, req *dto.ExportTariffsRequest, metadata *ClientMetadata) (*dto.ExportTariffsResponse, error)
}

// ExportFlowImpl implements the tariff export business flow
type ExportFlowImpl struct {
	recommendationRepo repository.RecommendationRepository
	export             config.ExportConfig
	hotel              config.HotelConfig
	db                 *gorm.DB
}

// NewExportFlow creates a new export flow instance
func NewExportFlow(
	recommendationRepo repository.RecommendationRepository,
	export config.ExportConfig,
	hotel config.HotelConfig,
	db *gorm.DB,
) ExportFlow {
	return &ExportFlowImpl{
		recommendationRepo: recommendationRepo,
		export:             export,
		hotel:              hotel,
		db:                 db,
	}
}

// ExportTariffs writes the approved recommendations in range to an xlsx file
// and transitions them to exported. Already exported records are not picked
// up again, so re-running an export never double-applies.
func (s *ExportFlowImpl) ExportTariffs(ctx context.Context, req *dto.ExportTariffsRequest, metadata *ClientMetadata) (*dto.ExportTariffsResponse, error) {
	from, err := utils.ParseDate(req.From)
	if err != nil {
		return nil, NewBusinessError("EXPORT_RANGE_INVALID", "Invalid from date", err)
	}
	to, err := utils.ParseDate(req.To)
	if err != nil {
		return nil, NewBusinessError("EXPORT_RANGE_INVALID", "Invalid to date", err)
	}
	rng, err := NewDateRange(from, to)
	if err != nil {
		return nil, NewBusinessError("EXPORT_RANGE_INVALID", "Invalid date range", err)
	}

	recs, err := s.recommendationRepo.ListPendingExport(ctx, rng.From, rng.To)
	if err != nil {
		return nil, NewBusinessError("EXPORT_LOAD_FAILED", "Failed to load approved recommendations", err)
	}
	if len(recs) == 0 {
		return nil, NewBusinessError("EXPORT_NOTHING_TO_EXPORT", "No approved recommendations in range", ErrNothingToExport)
	}

	filePath, err := s.writeWorkbook(rng, recs)
	if err != nil {
		return nil, err
	}

	// The file is on disk; flip the records so a retry exports nothing twice.
	err = repository.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		now := utils.UTCNowPtr()
		for _, rec := range recs {
			rec.Status = models.RecommendationStatusExported
			rec.ExportedAt = now
			if err := s.recommendationRepo.Update(txCtx, rec); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, NewBusinessError("EXPORT_MARK_FAILED", "Failed to mark recommendations exported", err)
	}

	return &dto.ExportTariffsResponse{
		Message:  "Tariffs exported",
		FilePath: filePath,
		Exported: len(recs),
	}, nil
}

func (s *ExportFlowImpl) writeWorkbook(rng DateRange, recs []*models.Recommendation) (string, error) {
	xl := excelize.NewFile()
	defer func() { _ = xl.Close() }()

	header := []string{"date", "room_category", "channel", "baseline_rate", "recommended_rate", "approved_rate", "decided_by", "decided_at", "contributing_rules"}

	writeSheet := func(name string, rows []*models.Recommendation) error {
		title := fmt.Sprintf("%s (%s) tariffs %s to %s",
			s.hotel.Name, s.hotel.Location, utils.FormatDate(rng.From), utils.FormatDate(rng.To))
		if err := xl.SetCellValue(name, "A1", title); err != nil {
			return err
		}

		start := 2
		if s.export.IncludeHeader {
			if err := xl.SetSheetRow(name, "A2", &header); err != nil {
				return err
			}
			start = 3
		}

		for ri, rec := range rows {
			approvedRate := rec.RecommendedRate
			if rec.ApprovedRate != nil {
				approvedRate = *rec.ApprovedRate
			}
			decidedBy := ""
			if rec.DecidedBy != nil {
				decidedBy = *rec.DecidedBy
			}
			decidedAt := ""
			if rec.DecidedAt != nil {
				decidedAt = rec.DecidedAt.UTC().Format(time.RFC3339)
			}
			ruleIDs := make([]string, 0, len(rec.ContributingRuleIDs))
			for _, id := range rec.ContributingRuleIDs {
				ruleIDs = append(ruleIDs, fmt.Sprintf("%d", id))
			}

			record := []any{
				utils.FormatDate(rec.Date),
				rec.RoomCategory,
				rec.Channel,
				rec.BaselineRate,
				rec.RecommendedRate,
				approvedRate,
				decidedBy,
				decidedAt,
				strings.Join(ruleIDs, ","),
			}
			cellRef, _ := excelize.CoordinatesToCellName(1, ri+start)
			if err := xl.SetSheetRow(name, cellRef, &record); err != nil {
				return err
			}
		}
		return nil
	}

	if s.export.SheetPerRoom {
		byCategory := make(map[string][]*models.Recommendation)
		order := make([]string, 0)
		for _, rec := range recs {
			if _, ok := byCategory[rec.RoomCategory]; !ok {
				order = append(order, rec.RoomCategory)
			}
			byCategory[rec.RoomCategory] = append(byCategory[rec.RoomCategory], rec)
		}

		for i, category := range order {
			name := sanitizeSheetName(category)
			if i == 0 {
				xl.SetSheetName(xl.GetSheetName(0), name)
			} else {
				if _, err := xl.NewSheet(name); err != nil {
					return "", NewBusinessError("EXPORT_SHEET_FAILED", "Failed to create sheet", err)
				}
			}
			if err := writeSheet(name, byCategory[category]); err != nil {
				return "", NewBusinessError("EXPORT_WRITE_FAILED", "Failed to write sheet", err)
			}
		}
	} else {
		name := sanitizeSheetName("Tariffs")
		xl.SetSheetName(xl.GetSheetName(0), name)
		if err := writeSheet(name, recs); err != nil {
			return "", NewBusinessError("EXPORT_WRITE_FAILED", "Failed to write sheet", err)
		}
	}

	if err := os.MkdirAll(s.export.Dir, 0o755); err != nil {
		return "", NewBusinessError("EXPORT_DIR_FAILED", "Failed to create export directory", err)
	}

	fileName := fmt.Sprintf("%s_%s_%s_%s.xlsx",
		s.export.FilePrefix, utils.FormatDate(rng.From), utils.FormatDate(rng.To),
		utils.UTCNow().Format("20060102T150405"))
	filePath := filepath.Join(s.export.Dir, fileName)

	if err := xl.SaveAs(filePath); err != nil {
		return "", NewBusinessError("EXPORT_SAVE_FAILED", "Failed to save workbook", err)
	}

	return filePath, nil
}

func sanitizeSheetName(name string) string {
	// Excel sheet names cannot contain: : \ / ? * [ ] and must be <= 31 chars
	replacer := strings.NewReplacer(":", "_", "\\", "_", "/", "_", "?", "_", "*", "_", "[", "_", "]", "_")
	safe := strings.TrimSpace(replacer.Replace(name))
	if len(safe) > 31 {
		safe = safe[:31]
	}
	if safe == "" {
		return "Sheet"
	}
	return safe
}
