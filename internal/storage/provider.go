// Package storage provides access to the scan files in the work directory.
package storage

// Provider abstracts work-directory file access so services can be
// tested against temporary directories.
type Provider interface {
	Root() string
	Abs(name string) (string, error)
	List() ([]string, error)
	Exists(name string) bool
	Read(name string) ([]byte, error)
	Write(name string, content []byte) error
	Delete(name string) error
	NextFilename(prefix string) (string, error)
}

// Verify *FS satisfies Provider at compile time.
var _ Provider = (*FS)(nil)
