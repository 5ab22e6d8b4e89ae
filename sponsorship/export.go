package sponsorship

import (
	"context"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/hackcelestial/sports-bridge/bridge"
)

const exportSheet = "Sponsorships"

var exportHeader = []interface{}{
	"ID", "Athlete", "Sport", "State", "Amount", "Currency", "Status", "Start", "End", "Created", "Terms",
}

func dateCell(t time.Time) string {
	return t.Format(dateLayout)
}

// Export writes the sponsor's offers as an xlsx workbook.
func (s *Service) Export(ctx context.Context, sponsor *bridge.User, w io.Writer) *bridge.HttpError {
	views, httpErr := s.ForSponsor(ctx, sponsor)
	if httpErr != nil {
		return httpErr
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			sponsorLogger.Error(err)
		}
	}()
	idx, err := f.NewSheet(exportSheet)
	if err != nil {
		return bridge.Internal("Could not build export", err)
	}
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	if err := f.SetSheetRow(exportSheet, "A1", &exportHeader); err != nil {
		return bridge.Internal("Could not build export", err)
	}
	for i, v := range views {
		row := []interface{}{
			v.ID, v.Athlete.Name, v.Athlete.Sport, v.Athlete.State,
			v.Amount, string(v.Currency), string(v.Status), "", "", dateCell(v.CreatedAt), v.Terms,
		}
		if v.ContractStartDate != nil {
			row[7] = dateCell(*v.ContractStartDate)
		}
		if v.ContractEndDate != nil {
			row[8] = dateCell(*v.ContractEndDate)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return bridge.Internal("Could not build export", err)
		}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return bridge.Internal("Could not build export", err)
		}
	}
	if err := f.Write(w); err != nil {
		return bridge.Internal("Could not write export", err)
	}
	return nil
}
