package formatter

import (
	"io"

	"github.com/bytedance/sonic"
	"github.com/penwyp/go-tflog-viewer/internal/core/model"
)

type JSONFormatter struct{}

func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

func (f *JSONFormatter) Format(w io.Writer, records []model.LogRecord) error {
	if records == nil {
		records = []model.LogRecord{}
	}
	data, err := sonic.ConfigStd.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}
	_, err = w.Write(append(data, '\n'))
	return err
}
