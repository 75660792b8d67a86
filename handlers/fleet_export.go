package handlers

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
	"p9e.in/nuzum/models"
	"p9e.in/nuzum/pkg/fleet"
	"p9e.in/nuzum/utils"
)

// FleetExporter renders the fleet register as a downloadable workbook or CSV.
type FleetExporter struct {
	db *gorm.DB
}

func NewFleetExporter(db *gorm.DB) *FleetExporter {
	return &FleetExporter{db: db}
}

var fleetExportHeaders = []string{
	"رقم اللوحة", "المركبة", "السنة", "الحالة", "السائق الحالي",
	"انتهاء التفويض", "انتهاء الاستمارة", "انتهاء الفحص",
	"تكلفة الصيانة", "عدد الحوادث المعتمدة",
}

type fleetExportRow struct {
	vehicle         models.Vehicle
	maintenanceCost float64
	accidentCount   int64
}

func (e *FleetExporter) collectRows() ([]fleetExportRow, error) {
	var vehicles []models.Vehicle
	if err := e.db.Order("plate_number asc").Find(&vehicles).Error; err != nil {
		return nil, err
	}

	rows := make([]fleetExportRow, 0, len(vehicles))
	for _, v := range vehicles {
		var cost float64
		if err := e.db.Model(&models.VehicleWorkshop{}).
			Where("vehicle_id = ?", v.ID).
			Select("COALESCE(SUM(cost), 0)").Scan(&cost).Error; err != nil {
			return nil, err
		}
		var accidents int64
		if err := e.db.Model(&models.VehicleAccident{}).
			Where("vehicle_id = ? AND review_status = ?", v.ID, models.ReviewApproved).
			Count(&accidents).Error; err != nil {
			return nil, err
		}
		rows = append(rows, fleetExportRow{vehicle: v, maintenanceCost: cost, accidentCount: accidents})
	}
	return rows, nil
}

func (r fleetExportRow) cells() []interface{} {
	v := r.vehicle
	driver := ""
	if v.DriverName != nil {
		driver = *v.DriverName
	}
	return []interface{}{
		v.PlateNumber,
		v.DisplayName(),
		v.Year,
		fleet.StatusLabel(v.Status),
		driver,
		formatExpiry(v.AuthorizationExpiry),
		formatExpiry(v.RegistrationExpiry),
		formatExpiry(v.InspectionExpiry),
		r.maintenanceCost,
		r.accidentCount,
	}
}

func formatExpiry(t *time.Time) string {
	if t == nil {
		return ""
	}
	return utils.FormatArabicDate(*t)
}

// ToExcel builds the full fleet workbook.
func (e *FleetExporter) ToExcel() (*excelize.File, error) {
	rows, err := e.collectRows()
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	sheetName := "المركبات"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(index)

	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 16},
		Alignment: &excelize.Alignment{
			Horizontal: "right",
			Vertical:   "center",
		},
	})
	f.SetCellValue(sheetName, "A1", "سجل المركبات")
	f.SetCellStyle(sheetName, "A1", "A1", titleStyle)
	f.SetRowHeight(sheetName, 1, 30)
	f.SetCellValue(sheetName, "A2", fmt.Sprintf("تاريخ التصدير: %s", utils.FormatArabicDateLong(time.Now())))

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#4472C4"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	for colIdx, header := range fleetExportHeaders {
		cell, _ := excelize.CoordinatesToCellName(colIdx+1, 4)
		f.SetCellValue(sheetName, cell, header)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
		col, _ := excelize.ColumnNumberToName(colIdx + 1)
		f.SetColWidth(sheetName, col, col, 20)
	}

	dataStyle, _ := f.NewStyle(&excelize.Style{
		Border: []excelize.Border{
			{Type: "left", Color: "CCCCCC", Style: 1},
			{Type: "right", Color: "CCCCCC", Style: 1},
			{Type: "top", Color: "CCCCCC", Style: 1},
			{Type: "bottom", Color: "CCCCCC", Style: 1},
		},
	})
	for rowIdx, row := range rows {
		for colIdx, value := range row.cells() {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+5)
			f.SetCellValue(sheetName, cell, value)
			f.SetCellStyle(sheetName, cell, cell, dataStyle)
		}
	}

	// Summary block under the table
	summaryRow := len(rows) + 7
	summaryStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E7E6E6"},
			Pattern: 1,
		},
	})
	cell, _ := excelize.CoordinatesToCellName(1, summaryRow)
	f.SetCellValue(sheetName, cell, "الملخص")
	f.SetCellStyle(sheetName, cell, cell, summaryStyle)

	var totalCost float64
	statusTotals := map[fleet.Status]int{}
	for _, row := range rows {
		totalCost += row.maintenanceCost
		statusTotals[row.vehicle.Status]++
	}
	summaryRow++
	writeSummary := func(label string, value interface{}) {
		keyCell, _ := excelize.CoordinatesToCellName(1, summaryRow)
		valueCell, _ := excelize.CoordinatesToCellName(2, summaryRow)
		f.SetCellValue(sheetName, keyCell, label)
		f.SetCellValue(sheetName, valueCell, value)
		summaryRow++
	}
	writeSummary("إجمالي المركبات", len(rows))
	writeSummary("إجمالي تكلفة الصيانة", totalCost)
	for _, status := range []fleet.Status{
		fleet.StatusAvailable, fleet.StatusRented, fleet.StatusInProject,
		fleet.StatusInWorkshop, fleet.StatusAccident, fleet.StatusOutOfService,
	} {
		if count := statusTotals[status]; count > 0 {
			writeSummary(fleet.StatusLabel(status), count)
		}
	}

	f.DeleteSheet("Sheet1")
	return f, nil
}

// ToCSV renders the same register as UTF-8 CSV with a BOM so Excel opens the
// Arabic text correctly.
func (e *FleetExporter) ToCSV() ([]byte, error) {
	rows, err := e.collectRows()
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.WriteString("\uFEFF")
	writer := csv.NewWriter(&buf)

	if err := writer.Write(fleetExportHeaders); err != nil {
		return nil, err
	}
	for _, row := range rows {
		record := make([]string, 0, len(fleetExportHeaders))
		for _, value := range row.cells() {
			record = append(record, fmt.Sprintf("%v", value))
		}
		if err := writer.Write(record); err != nil {
			return nil, err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ExportFilename builds the timestamped download name.
func ExportFilename(extension string) string {
	stamp := time.Now().Format("20060102_150405")
	return strings.Join([]string{"fleet", stamp}, "_") + "." + extension
}
