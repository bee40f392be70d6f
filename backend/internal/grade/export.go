package grade

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"student_tracking/backend/internal/shared"
	"student_tracking/backend/internal/store"
)

const (
	reportSheet = "Grades"
	// XLSXContentType is the media type of ExportCourseGrades output
	XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var reportHeader = []string{"Student ID", "Name", "Assignment", "Score", "Max Score", "Percentage", "Date Graded"}

// ExportCourseGrades renders every grade of a course as an .xlsx workbook.
// It returns the workbook and a suggested file name.
func (s *GradeService) ExportCourseGrades(ctx context.Context, courseHex string) (*bytes.Buffer, string, error) {
	id, err := shared.ParseID(courseHex)
	if err != nil {
		return nil, "", err
	}
	course, err := s.store.FindCourseByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, "", shared.NewNotFoundError("Course not found")
	}
	if err != nil {
		return nil, "", shared.NewInternalError("failed to load course", err)
	}

	rows, err := s.store.CourseGradeRows(ctx, id)
	if err != nil {
		return nil, "", shared.NewInternalError("failed to load grades", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	idx, _ := f.NewSheet(reportSheet)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	f.SetColWidth(reportSheet, "A", "A", 12)
	f.SetColWidth(reportSheet, "B", "B", 26)
	f.SetColWidth(reportSheet, "C", "C", 14)
	f.SetColWidth(reportSheet, "G", "G", 20)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})

	for i, h := range reportHeader {
		f.SetCellValue(reportSheet, cell(i, 1), h)
	}
	f.SetCellStyle(reportSheet, cell(0, 1), cell(len(reportHeader)-1, 1), headerStyle)

	for r, row := range rows {
		n := r + 2
		f.SetCellValue(reportSheet, cell(0, n), row.StudentID)
		f.SetCellValue(reportSheet, cell(1, n), row.StudentName)
		f.SetCellValue(reportSheet, cell(2, n), string(row.AssignmentType))
		f.SetCellValue(reportSheet, cell(3, n), row.Score)
		f.SetCellValue(reportSheet, cell(4, n), row.MaxScore)
		f.SetCellValue(reportSheet, cell(5, n), row.Percentage)
		f.SetCellValue(reportSheet, cell(6, n), row.DateGraded.Format("2006-01-02 15:04"))
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("failed to write workbook", zap.String("course", courseHex), zap.Error(err))
		return nil, "", shared.NewInternalError("failed to generate report", err)
	}

	return buf, fmt.Sprintf("grades_%s.xlsx", course.CourseCode), nil
}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col+1, row)
	return name
}
