package workbook

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"factsheet/pkg/contracts/domain"
)

// Create writes a control workbook holding settings and an empty status cell,
// with the "settings" and "status" names defined.
func Create(path string, settings domain.Settings) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", RunSheet); err != nil {
		return err
	}

	rows := [][]interface{}{
		{domain.SettingFundSelection, settings.FundSelection},
		{domain.SettingOpenPDFs, settings.OpenExportedDocument},
		{domain.SettingUploadPDFs, settings.UploadExportedDocument},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(RunSheet, cell, &row); err != nil {
			return err
		}
	}
	if err := f.SetCellStr(RunSheet, "A5", "Status"); err != nil {
		return err
	}
	if err := f.SetColWidth(RunSheet, "A", "A", 18); err != nil {
		return err
	}
	if err := f.SetColWidth(RunSheet, "B", "B", 40); err != nil {
		return err
	}

	for _, dn := range []excelize.DefinedName{
		{Name: SettingsName, RefersTo: fallbackSettings},
		{Name: StatusName, RefersTo: fallbackStatus},
	} {
		dn := dn
		if err := f.SetDefinedName(&dn); err != nil {
			return fmt.Errorf("failed to define %s: %w", dn.Name, err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return f.SaveAs(path)
}
