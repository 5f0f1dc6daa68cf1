// Package report summarizes attendance for the organisers.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"rsvp-checkin/internal/models"
)

const otherProgram = "Lainnya"

type Program struct {
	Program   string `json:"program"`
	Total     int    `json:"total"`
	Confirmed int    `json:"confirmed"`
}

type Row struct {
	No        int           `json:"no"`
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Program   string        `json:"program"`
	NPM       string        `json:"npm"`
	Status    models.Status `json:"status"`
	CheckedIn time.Time     `json:"checkedIn"`
}

type Summary struct {
	GeneratedAt  time.Time `json:"generatedAt"`
	Total        int       `json:"total"`
	Sent         int       `json:"sent"`
	Confirmed    int       `json:"confirmed"`
	ResponseRate int       `json:"responseRate"`
	Programs     []Program `json:"programs"`
	Rows         []Row     `json:"rows"`
}

// Build computes the attendance summary; rows keep the order of attendees
func Build(attendees []models.Attendee, now time.Time) Summary {
	s := Summary{
		GeneratedAt: now,
		Total:       len(attendees),
		Programs:    make([]Program, 0),
		Rows:        make([]Row, 0, len(attendees)),
	}

	byProgram := make(map[string]*Program)
	for i, a := range attendees {
		confirmed := a.Status == models.StatusConfirmed
		if a.Status != models.StatusDraft {
			s.Sent++
		}
		if confirmed {
			s.Confirmed++
		}

		key := strings.TrimSpace(a.Program)
		if key == "" {
			key = otherProgram
		}
		p, ok := byProgram[key]
		if !ok {
			p = &Program{Program: key}
			byProgram[key] = p
		}
		p.Total++
		if confirmed {
			p.Confirmed++
		}

		checkedIn := a.UpdatedAt
		if a.ConfirmedAt != nil {
			checkedIn = *a.ConfirmedAt
		}
		s.Rows = append(s.Rows, Row{
			No:        i + 1,
			ID:        a.ID,
			Name:      a.Name,
			Program:   a.Program,
			NPM:       a.NPM,
			Status:    a.Status,
			CheckedIn: checkedIn,
		})
	}

	s.ResponseRate = Percent(s.Confirmed, s.Total)
	for _, p := range byProgram {
		s.Programs = append(s.Programs, *p)
	}
	sort.Slice(s.Programs, func(i, j int) bool {
		return s.Programs[i].Program < s.Programs[j].Program
	})
	return s
}

// Percent returns part/total as a rounded percentage, 0 when total is 0
func Percent(part, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(total) * 100))
}

// WriteCSV writes the attendance list with a present/absent column
func (s Summary) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"No", "ID", "Name", "Program", "NPM", "Status", "Present", "Checked in"}); err != nil {
		return fmt.Errorf("failed to write report header: %w", err)
	}
	for _, r := range s.Rows {
		present := "no"
		if r.Status == models.StatusConfirmed {
			present = "yes"
		}
		npm := r.NPM
		if npm == "" {
			npm = models.Placeholder
		}
		checkedIn := models.Placeholder
		if !r.CheckedIn.IsZero() {
			checkedIn = r.CheckedIn.Format(time.DateTime)
		}
		record := []string{
			strconv.Itoa(r.No), r.ID, r.Name, r.Program, npm, string(r.Status), present, checkedIn,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write report row %d: %w", r.No, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
