package ports

import (
	"io"

	"gotercih/domain/school"
)

// ResultWriter serializes a result set for download
type ResultWriter interface {
	Write(w io.Writer, schema school.Schema, results *school.ResultSet) error
	ContentType() string
	Extension() string
}
