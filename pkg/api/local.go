package api

import (
	"fmt"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

// localFileServer serves written reports from the output directory. Report
// paths recorded in the index are only served when they resolve inside it.
type localFileServer struct {
	log  logrus.FieldLogger
	root string
}

// newLocalFileServer creates a file server rooted at the output directory.
func newLocalFileServer(log logrus.FieldLogger, root string) *localFileServer {
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}

	return &localFileServer{
		log:  log.WithField("component", "local-file-server"),
		root: filepath.Clean(root),
	}
}

// relative maps a recorded report path to a path relative to root.
func (l *localFileServer) relative(reportPath string) (string, error) {
	abs, err := filepath.Abs(reportPath)
	if err != nil {
		return "", err
	}

	rel, err := filepath.Rel(l.root, abs)
	if err != nil {
		return "", err
	}

	rel = filepath.ToSlash(rel)
	if !l.isAllowedPath(rel) {
		return "", fmt.Errorf("path %q is outside the output directory", reportPath)
	}

	return rel, nil
}

// ServeFile serves the report at reportPath. It returns an error, without
// writing a response, when the path is disallowed or missing.
func (l *localFileServer) ServeFile(
	w http.ResponseWriter,
	r *http.Request,
	reportPath string,
) error {
	rel, err := l.relative(reportPath)
	if err != nil {
		return err
	}

	full := filepath.Join(l.root, filepath.FromSlash(rel))

	info, err := os.Stat(full)
	if err != nil || info.IsDir() {
		return fmt.Errorf("report file %q not found", rel)
	}

	w.Header().Set("Content-Type", "application/xml")
	http.ServeFile(w, r, full)

	return nil
}

// isAllowedPath rejects empty, absolute, unclean, or traversal paths.
func (l *localFileServer) isAllowedPath(filePath string) bool {
	if filePath == "" || filePath == "." {
		return false
	}

	if strings.HasPrefix(filePath, "../") || filePath == ".." ||
		strings.Contains(filePath, "/../") {
		return false
	}

	if filepath.IsAbs(filePath) || strings.HasPrefix(filePath, "/") {
		return false
	}

	return path.Clean(filePath) == filePath
}
