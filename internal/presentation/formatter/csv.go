package formatter

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/penwyp/go-tflog-viewer/internal/core/model"
)

type CSVFormatter struct{}

func NewCSVFormatter() *CSVFormatter {
	return &CSVFormatter{}
}

func (f *CSVFormatter) Format(w io.Writer, records []model.LogRecord) error {
	cw := csv.NewWriter(w)

	headers := []string{"id", "ts", "level", "tf_req_id", "tf_resource", "section", "read", "text_excerpt"}
	if err := cw.Write(headers); err != nil {
		return err
	}

	for _, r := range records {
		ts := ""
		if r.HasTimestamp() {
			ts = formatTS(r)
		}
		row := []string{
			strconv.FormatInt(r.ID, 10),
			ts,
			string(r.Level),
			r.ReqID,
			r.Resource,
			r.Section,
			strconv.FormatBool(r.IsRead()),
			r.Excerpt,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
