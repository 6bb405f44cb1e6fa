package main

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"swparquet/footer"
	"swparquet/page"
)

var pageOffset int32

var countPagesCmd = &cobra.Command{
	Use:   "count-pages <file>",
	Short: "walk the pages of a column chunk and summarize them",
	Args:  cobra.ExactArgs(1),
	RunE:  runCountPages,
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "decode a single page header",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

var footerCmd = &cobra.Command{
	Use:   "footer <file>",
	Short: "print the schema and column chunks from the footer",
	Args:  cobra.ExactArgs(1),
	RunE:  runFooter,
}

func init() {
	for _, cmd := range []*cobra.Command{countPagesCmd, inspectCmd} {
		cmd.Flags().Int32Var(
			&pageOffset, "offset", int32(len(footer.Magic)), "file offset of the first page")
	}
}

func runCountPages(cmd *cobra.Command, args []string) error {
	r, err := load(args[0])
	if err != nil {
		return err
	}
	s := r.CountPages(pageOffset)
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "pages:  %d\n", s.Pages)
	fmt.Fprintf(out, "values: %d\n", s.Values)
	fmt.Fprintf(out, "bytes:  %s (%d)\n", humanize.IBytes(uint64(s.Bytes)), s.Bytes)
	fmt.Fprintf(out, "end:    %d of %d\n", s.End, len(r.Data()))
	if s.Pages == 0 {
		return nil
	}

	fmt.Fprintln(out, "\npages by payload size:")
	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"Size", "Bytes", "Pages"})
	for _, b := range s.SortedSizes() {
		table.Append([]string{
			humanize.IBytes(uint64(b.Key)),
			fmt.Sprint(b.Key),
			fmt.Sprint(b.Count),
		})
	}
	table.Render()

	fmt.Fprintln(out, "\npages by value count:")
	table = tablewriter.NewWriter(out)
	table.SetHeader([]string{"Values", "Pages"})
	for _, b := range s.SortedValueCounts() {
		table.Append([]string{fmt.Sprint(b.Key), fmt.Sprint(b.Count)})
	}
	table.Render()
	return nil
}

func runInspect(cmd *cobra.Command, args []string) error {
	r, err := load(args[0])
	if err != nil {
		return err
	}
	h, err := r.InspectHeader(pageOffset)
	if err != nil {
		return err
	}
	crc := "absent"
	if h.HasCRC {
		crc = fmt.Sprintf("%#08x", uint32(h.CRC))
	}
	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.SetHeader([]string{"Field", "Value"})
	table.AppendBulk([][]string{
		{"offset", fmt.Sprint(pageOffset)},
		{"header length", fmt.Sprint(h.Len)},
		{"type", h.Type.String()},
		{"uncompressed size", fmt.Sprint(h.UncompressedSize)},
		{"compressed size", fmt.Sprint(h.CompressedSize)},
		{"crc", crc},
		{"num values", fmt.Sprint(h.NumValues)},
		{"num nulls", fmt.Sprint(h.NumNulls)},
		{"num rows", fmt.Sprint(h.NumRows)},
		{"encoding", h.Encoding.String()},
		{"definition levels", humanize.IBytes(uint64(h.DefLevelsLen))},
		{"repetition levels", humanize.IBytes(uint64(h.RepLevelsLen))},
		{"is compressed", fmt.Sprint(h.IsCompressed)},
		{"next page", fmt.Sprint(int64(pageOffset) + int64(h.Len) + int64(h.CompressedSize))},
	})
	table.Render()
	return nil
}

func runFooter(cmd *cobra.Command, args []string) error {
	r, err := load(args[0])
	if err != nil {
		return err
	}
	m, err := footer.Read(r.Data())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, "=== Schema ===")
	for i, e := range m.Leaves() {
		typ := "GROUP"
		if e.Type != nil {
			typ = e.Type.String()
		}
		rep := footer.Required
		if e.RepetitionType != nil {
			rep = *e.RepetitionType
		}
		fmt.Fprintf(out, "%d. %s (type: %s, repetition: %s)\n", i+1, e.Name, typ, repetitionName(rep))
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Num Rows:", m.NumRows)
	if m.CreatedBy != "" {
		fmt.Fprintln(out, "Created By:", m.CreatedBy)
	}

	for i, rg := range m.RowGroups {
		fmt.Fprintln(out, "\t Row group:", i)
		fmt.Fprintln(out, "\t\t Row Count:", rg.NumRows)
		fmt.Fprintln(out, "\t\t Row size:", humanize.Bytes(uint64(rg.TotalByteSize)))
		table := tablewriter.NewWriter(out)
		table.SetHeader([]string{"Col", "Type", "NumVal", "Encodings", "DataPageOffset", "TotalCompressedSize"})
		for _, cc := range rg.Columns {
			md := cc.MetaData
			if md == nil {
				table.Append([]string{cc.FilePath, "", "", "", "", ""})
				continue
			}
			encs := make([]string, len(md.Encodings))
			for j, e := range md.Encodings {
				encs[j] = page.Encoding(e).String()
			}
			table.Append([]string{
				strings.Join(md.PathInSchema, "/"),
				md.Type.String(),
				fmt.Sprint(md.NumValues),
				strings.Join(encs, ","),
				fmt.Sprint(md.DataPageOffset),
				humanize.Bytes(uint64(md.TotalCompressedSize)),
			})
		}
		table.Render()
	}
	return nil
}

func repetitionName(r int32) string {
	switch r {
	case footer.Required:
		return "REQUIRED"
	case footer.Optional:
		return "OPTIONAL"
	case footer.Repeated:
		return "REPEATED"
	}
	return fmt.Sprintf("repetition(%d)", r)
}
