package services

import (
	"context"
	"cyberdravida/database"
	courseModels "cyberdravida/models/course"
	"cyberdravida/utils"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// ImportResult counts what a catalog import did
type ImportResult struct {
	Inserted int      `json:"inserted"`
	Updated  int      `json:"updated"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors,omitempty"`
}

// getField safely gets a field from the row by header name
func getField(row []string, headerIndex map[string]int, field string) string {
	if idx, ok := headerIndex[field]; ok && idx < len(row) {
		return strings.TrimSpace(row[idx])
	}
	return ""
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, "|") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// ImportCSV upserts courses from a CSV with a header row. Rows are matched
// on the slug of their title; new courses are created unpublished. Columns:
// title, short_description, description, price, original_price, level,
// duration, category, thumbnail, is_featured, requirements, outcomes.
// List columns separate items with "|".
func (s *CatalogService) ImportCSV(ctx context.Context, r io.Reader, instructorID *uint) (*ImportResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, newError(KindValidation, "CSV file is empty")
		}
		return nil, newError(KindValidation, "Invalid CSV header: %v", err)
	}
	headerIndex := make(map[string]int, len(header))
	for i, h := range header {
		headerIndex[strings.ToLower(strings.TrimSpace(h))] = i
	}
	if _, ok := headerIndex["title"]; !ok {
		return nil, newError(KindValidation, "CSV must have a title column")
	}

	result := &ImportResult{}
	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("line %d: %v", line, err))
			continue
		}

		in, err := courseFromRow(row, headerIndex)
		if err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("line %d: %v", line, err))
			continue
		}
		in.InstructorID = instructorID

		created, err := s.upsertImported(ctx, in)
		if err != nil {
			if KindOf(err) == "" {
				return result, err
			}
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("line %d: %v", line, err))
			continue
		}
		if created {
			result.Inserted++
		} else {
			result.Updated++
		}
	}

	log.Printf("[IMPORT] Inserted: %d, Updated: %d, Skipped: %d", result.Inserted, result.Updated, result.Skipped)
	return result, nil
}

func courseFromRow(row []string, headerIndex map[string]int) (CourseInput, error) {
	in := CourseInput{
		Title:            getField(row, headerIndex, "title"),
		ShortDescription: getField(row, headerIndex, "short_description"),
		Description:      getField(row, headerIndex, "description"),
		Level:            strings.ToLower(getField(row, headerIndex, "level")),
		Category:         getField(row, headerIndex, "category"),
		Thumbnail:        getField(row, headerIndex, "thumbnail"),
		Requirements:     splitList(getField(row, headerIndex, "requirements")),
		Outcomes:         splitList(getField(row, headerIndex, "outcomes")),
	}
	if in.Title == "" {
		return in, fmt.Errorf("missing title")
	}

	var err error
	if v := getField(row, headerIndex, "price"); v != "" {
		if in.Price, err = decimal.NewFromString(v); err != nil {
			return in, fmt.Errorf("invalid price %q", v)
		}
	}
	if v := getField(row, headerIndex, "original_price"); v != "" {
		if in.OriginalPrice, err = decimal.NewFromString(v); err != nil {
			return in, fmt.Errorf("invalid original_price %q", v)
		}
	}
	if v := getField(row, headerIndex, "duration"); v != "" {
		if in.Duration, err = strconv.Atoi(v); err != nil {
			return in, fmt.Errorf("invalid duration %q", v)
		}
	}
	if v := getField(row, headerIndex, "is_featured"); v != "" {
		if in.IsFeatured, err = strconv.ParseBool(v); err != nil {
			return in, fmt.Errorf("invalid is_featured %q", v)
		}
	}
	return in, nil
}

func (s *CatalogService) upsertImported(ctx context.Context, in CourseInput) (bool, error) {
	var existing courseModels.Course
	err := s.db.WithContext(ctx).Where("slug = ?", utils.Slugify(in.Title)).First(&existing).Error
	if database.IsNotFound(err) {
		_, err := s.Create(ctx, in)
		return err == nil, err
	}
	if err != nil {
		return false, errors.Wrap(err, "lookup course")
	}

	update := CourseUpdate{
		ShortDescription: &in.ShortDescription,
		Description:      &in.Description,
		Price:            &in.Price,
		OriginalPrice:    &in.OriginalPrice,
		Duration:         &in.Duration,
		IsFeatured:       &in.IsFeatured,
		Requirements:     in.Requirements,
		Outcomes:         in.Outcomes,
	}
	if in.Level != "" {
		update.Level = &in.Level
	}
	if in.Category != "" {
		update.Category = &in.Category
	}
	if in.Thumbnail != "" {
		update.Thumbnail = &in.Thumbnail
	}
	_, err = s.Update(ctx, existing.ID, update)
	return false, err
}

