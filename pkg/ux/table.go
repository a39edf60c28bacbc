// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ux

import (
	"io"

	"github.com/olekukonko/tablewriter"
)

// Row is one key/value line of a summary table.
type Row struct {
	Key   string
	Value string
}

// PrintSummaryTable renders rows as a two column table.
func PrintSummaryTable(w io.Writer, rows []Row) error {
	table := tablewriter.NewWriter(w)
	for _, row := range rows {
		if err := table.Append([]string{row.Key, row.Value}); err != nil {
			return err
		}
	}
	return table.Render()
}
