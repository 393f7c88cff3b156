// Package aar rewrites AARs produced by soong. Those archives bundle the
// classes of every dependency and carry no resources; Slim keeps only the
// library's own classes and adds the resource folders.
package aar

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

const classesJar = "classes.jar"

// rClass matches generated R classes; they are regenerated from R.txt when
// the final app is built.
var rClass = regexp.MustCompile(`^.+/R(\$[a-zA-Z$]*)?\.class$`)

// Options configures Slim.
type Options struct {
	Output   string
	SoongAAR string
	// ClassesAllowlist is the entry-name prefix of classes to keep,
	// e.g. "com/android/car/ui/".
	ClassesAllowlist string
	ResFolders       []string
}

// Stats summarises what Slim wrote.
type Stats struct {
	ClassesKept    int
	ClassesDropped int
	EntriesCopied  int
	Resources      int
}

// Slim writes opts.Output from opts.SoongAAR. The output is removed again
// if any step fails.
func Slim(opts Options) (stats Stats, err error) {
	if opts.ClassesAllowlist == "" {
		return stats, fmt.Errorf("--classes-allowlist must not be empty")
	}

	in, err := zip.OpenReader(opts.SoongAAR)
	if err != nil {
		return stats, fmt.Errorf("open %s: %w", opts.SoongAAR, err)
	}
	defer in.Close()

	f, err := os.Create(opts.Output)
	if err != nil {
		return stats, fmt.Errorf("create %s: %w", opts.Output, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = cerr
		}
		if err != nil {
			_ = os.Remove(opts.Output)
		}
	}()

	out := zip.NewWriter(f)

	if err := writeClasses(out, &in.Reader, opts.ClassesAllowlist, &stats); err != nil {
		return stats, err
	}
	for _, e := range in.File {
		if e.Name == classesJar {
			continue
		}
		if err := copyEntry(out, e, e.Name); err != nil {
			return stats, err
		}
		stats.EntriesCopied++
	}
	for i, dir := range opts.ResFolders {
		n, err := addResources(out, dir, i+1)
		if err != nil {
			return stats, err
		}
		stats.Resources += n
	}
	if err := out.Close(); err != nil {
		return stats, fmt.Errorf("finish %s: %w", opts.Output, err)
	}
	return stats, nil
}

// writeClasses copies the allowlisted, non-R entries of the input
// classes.jar into a new classes.jar entry of out.
func writeClasses(out *zip.Writer, in *zip.Reader, prefix string, stats *Stats) error {
	src, err := in.Open(classesJar)
	if err != nil {
		return fmt.Errorf("read %s: %w", classesJar, err)
	}
	// zip.NewReader needs random access, so the nested jar is buffered.
	b, err := io.ReadAll(src)
	_ = src.Close()
	if err != nil {
		return fmt.Errorf("read %s: %w", classesJar, err)
	}
	jar, err := zip.NewReader(bytes.NewReader(b), int64(len(b)))
	if err != nil {
		return fmt.Errorf("open %s: %w", classesJar, err)
	}

	w, err := out.CreateHeader(&zip.FileHeader{Name: classesJar, Method: zip.Deflate})
	if err != nil {
		return err
	}
	outJar := zip.NewWriter(w)
	for _, c := range jar.File {
		if !KeepClass(c.Name, prefix) {
			stats.ClassesDropped++
			continue
		}
		if err := copyEntry(outJar, c, c.Name); err != nil {
			return err
		}
		stats.ClassesKept++
	}
	return outJar.Close()
}

// KeepClass reports whether a classes.jar entry belongs in the slim AAR.
func KeepClass(name, prefix string) bool {
	return strings.HasPrefix(name, prefix) && !rClass.MatchString(name)
}

// copyEntry recompresses e into out under name.
func copyEntry(out *zip.Writer, e *zip.File, name string) error {
	rc, err := e.Open()
	if err != nil {
		return fmt.Errorf("read %s: %w", e.Name, err)
	}
	defer rc.Close()
	w, err := out.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate, Modified: e.Modified})
	if err != nil {
		return err
	}
	if _, err := io.Copy(w, rc); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// addResources adds every child of every sub-directory of dir under
// res/<subdir>/. Files in values* folders get index appended to their name
// so several resource folders can ship a values/strings.xml each.
func addResources(out *zip.Writer, dir string, index int) (int, error) {
	subdirs, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("read resource folder: %w", err)
	}
	n := 0
	for _, d := range subdirs {
		if !isDir(dir, d) {
			continue
		}
		children, err := os.ReadDir(filepath.Join(dir, d.Name()))
		if err != nil {
			return n, fmt.Errorf("read resource folder: %w", err)
		}
		for _, c := range children {
			name := c.Name()
			if strings.HasPrefix(d.Name(), "values") {
				name = IndexedName(name, index)
			}
			arc := path.Join("res", d.Name(), name)
			if err := addFile(out, filepath.Join(dir, d.Name(), c.Name()), arc); err != nil {
				return n, err
			}
			n++
		}
	}
	return n, nil
}

// isDir follows symlinks so linked resource directories are included.
func isDir(parent string, d os.DirEntry) bool {
	if d.IsDir() {
		return true
	}
	if d.Type()&os.ModeSymlink == 0 {
		return false
	}
	fi, err := os.Stat(filepath.Join(parent, d.Name()))
	return err == nil && fi.IsDir()
}

// IndexedName inserts index before a ".xml" extension, or appends it.
func IndexedName(name string, index int) string {
	if strings.HasSuffix(name, ".xml") {
		return strings.TrimSuffix(name, ".xml") + strconv.Itoa(index) + ".xml"
	}
	return name + strconv.Itoa(index)
}

func addFile(out *zip.Writer, src, arc string) error {
	fi, err := os.Stat(src)
	if err != nil {
		return err
	}
	hdr, err := zip.FileInfoHeader(fi)
	if err != nil {
		return err
	}
	hdr.Name = arc
	if fi.IsDir() {
		hdr.Name += "/"
		_, err := out.CreateHeader(hdr)
		return err
	}
	hdr.Method = zip.Deflate
	w, err := out.CreateHeader(hdr)
	if err != nil {
		return err
	}
	rf, err := os.Open(src)
	if err != nil {
		return err
	}
	defer rf.Close()
	if _, err := io.Copy(w, rf); err != nil {
		return fmt.Errorf("write %s: %w", arc, err)
	}
	return nil
}
