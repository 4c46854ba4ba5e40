package export

import (
	"fmt"
	"io"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/xuri/excelize/v2"

	"bikeshare-dashboard/internal/modules/rentals/analysis"
)

const sheetName = "Rentals"

var header = []string{"dteday", "season", "weather", "cnt"}

// Frame turns table rows back into a dataframe with the exported columns.
func Frame(rows []analysis.TableRow) dataframe.DataFrame {
	dates := make([]string, len(rows))
	seasons := make([]string, len(rows))
	weathers := make([]string, len(rows))
	cnts := make([]int, len(rows))
	for i, r := range rows {
		dates[i], seasons[i], weathers[i], cnts[i] = r.Date, r.Season, r.Weather, r.Count
	}
	return dataframe.New(
		series.New(dates, series.String, header[0]),
		series.New(seasons, series.String, header[1]),
		series.New(weathers, series.String, header[2]),
		series.New(cnts, series.Int, header[3]),
	)
}

func WriteCSV(w io.Writer, rows []analysis.TableRow) error {
	if err := Frame(rows).WriteCSV(w); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// WriteXLSX writes rows to a single-sheet workbook. A non-empty summary is
// placed two rows below the table.
func WriteXLSX(w io.Writer, rows []analysis.TableRow, summary string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("xlsx sheet: %w", err)
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return fmt.Errorf("xlsx header: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("xlsx style: %w", err)
	}
	if err := f.SetCellStyle(sheetName, "A1", "D1", bold); err != nil {
		return fmt.Errorf("xlsx style: %w", err)
	}

	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheetName, cell, &[]any{r.Date, r.Season, r.Weather, r.Count}); err != nil {
			return fmt.Errorf("xlsx row %d: %w", i+2, err)
		}
	}
	if summary != "" {
		cell, err := excelize.CoordinatesToCellName(1, len(rows)+3)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheetName, cell, summary); err != nil {
			return fmt.Errorf("xlsx summary: %w", err)
		}
	}
	if err := f.SetColWidth(sheetName, "A", "C", 14); err != nil {
		return fmt.Errorf("xlsx width: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}
