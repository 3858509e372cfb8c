package report

import (
	"encoding/csv"
	"io"
	"strconv"

	"adlens/internal/domain"
)

// WriteMembersCSV writes the detailed descendant view as RFC 4180 CSV.
func WriteMembersCSV(w io.Writer, cl *domain.DescendantClosure) error {
	cw := csv.NewWriter(w)
	header := []string{"name", "sam_account_name", "kind", "dn", "depth", "source_group", "enabled", "inactive", "days_since_activity"}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, row := range Detailed(cl) {
		rec := []string{
			row.Object.DisplayName(),
			row.Object.SAMAccountName,
			string(row.Object.Kind),
			row.Object.DN,
			strconv.Itoa(row.Depth),
			row.SourceGroupName,
			strconv.FormatBool(row.Object.Enabled),
			strconv.FormatBool(row.Inactive),
			strconv.Itoa(row.DaysSinceActivity),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteGroupsCSV writes the flat ancestor view as CSV: one line per group
// with the parents that led to it.
func WriteGroupsCSV(w io.Writer, cl *domain.AncestorClosure) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"name", "dn", "reached_via"}); err != nil {
		return err
	}
	for _, g := range AncestorGroups(cl) {
		via := ""
		for i, e := range cl.Parents[g.DN] {
			if i > 0 {
				via += "; "
			}
			if obj, ok := cl.Objects[e.Child]; ok {
				via += obj.DisplayName()
			} else {
				via += e.Child
			}
		}
		if err := cw.Write([]string{g.DisplayName(), g.DN, via}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
