// Package export renders pipeline output as an XLSX workbook.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"convi-text-pipeline/internal/models"
)

const (
	SheetTurns    = "Turns"
	SheetEntities = "Entities"
)

var (
	turnHeader   = []any{"Turn", "Speaker", "Speaker ID", "Role", "Language", "Confidence", "Original Text", "Cleaned Text", "Lemmatized Text", "Tokens"}
	entityHeader = []any{"Turn", "Speaker ID", "Text", "Label", "Start", "End", "Unique"}
)

// Workbook builds a workbook with one row per turn and one row per entity
// mention. The caller owns the returned file and must Close it.
func Workbook(out *models.TextPipelineOutput) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", SheetTurns); err != nil {
		f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(SheetEntities); err != nil {
		f.Close()
		return nil, fmt.Errorf("create sheet: %w", err)
	}

	if err := writeTurns(f, out); err != nil {
		f.Close()
		return nil, err
	}
	if err := writeEntities(f, out); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

// WriteXLSX writes the workbook for out to w.
func WriteXLSX(w io.Writer, out *models.TextPipelineOutput) error {
	f, err := Workbook(out)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Write(w)
}

func writeTurns(f *excelize.File, out *models.TextPipelineOutput) error {
	if err := setRow(f, SheetTurns, 1, turnHeader); err != nil {
		return err
	}
	for i, pt := range out.Turns {
		row := []any{
			pt.TurnIndex,
			pt.SpeakerLabel,
			pt.SpeakerID,
			pt.Role.String(),
			pt.Language,
			pt.LanguageConfidence,
			pt.OriginalText,
			pt.CleanedText,
			pt.LemmatizedText,
			strings.Join(pt.Tokens, " "),
		}
		if err := setRow(f, SheetTurns, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func writeEntities(f *excelize.File, out *models.TextPipelineOutput) error {
	if err := setRow(f, SheetEntities, 1, entityHeader); err != nil {
		return err
	}

	// a mention is "unique" when it is the occurrence kept in all_entities
	kept := make(map[[2]string]bool, len(out.AllEntities))
	for _, e := range out.AllEntities {
		kept[[2]string{strings.ToLower(e.Text), e.Label}] = true
	}

	row := 2
	for _, pt := range out.Turns {
		for _, e := range pt.Entities {
			key := [2]string{strings.ToLower(e.Text), e.Label}
			unique := kept[key]
			kept[key] = false
			values := []any{pt.TurnIndex, pt.SpeakerID, e.Text, e.Label, e.StartChar, e.EndChar, unique}
			if err := setRow(f, SheetEntities, row, values); err != nil {
				return err
			}
			row++
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}
