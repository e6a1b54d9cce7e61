package dispatch

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/chenBenjamin97/ballannotate/pkg/utils"
	"github.com/chenBenjamin97/ballannotate/pkg/video"
)

//ErrInputMissing is returned when the input root does not exist or is not a directory
var ErrInputMissing = errors.New("input directory missing")

//generatedSuffixes mark directories written by the pipeline itself, never walked as input
var generatedSuffixes = []string{
	utils.OverlayDirSuffix,
	utils.OutputDirSuffix,
	utils.AnnotationDirSuffix,
	utils.MaskDirSuffix,
}

//DiscoverOptions controls which output directories discovered sequences get
type DiscoverOptions struct {
	StorageRoot string //image references are relative to it, defaults to the input root
	Overlays    bool
	Masks       bool
}

//Discover walks root and returns one sequence per directory named after a camera side ('left'/'right')
//that holds at least one frame. Sequences are returned in lexical path order.
func Discover(root string, opts DiscoverOptions) ([]video.Sequence, error) {
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%s: %w", root, ErrInputMissing)
	}

	storageRoot := opts.StorageRoot
	if storageRoot == "" {
		storageRoot = root
	}

	seqs := make([]video.Sequence, 0)
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && isGenerated(d.Name()) {
			return filepath.SkipDir
		}

		side, ok := utils.ParseSide(d.Name())
		if !ok || !hasFrames(path) {
			return nil
		}

		rel, err := filepath.Rel(storageRoot, path)
		if err != nil {
			return fmt.Errorf("Discover: '%v' is not under storage root '%v', got '%w'", path, storageRoot, err)
		}

		seq := video.Sequence{
			Dir:           path,
			Side:          side,
			Relative:      filepath.ToSlash(rel),
			AnnotationDir: path + utils.AnnotationDirSuffix,
		}
		if opts.Overlays {
			seq.OverlayDir = path + utils.OverlayDirSuffix
		}
		if opts.Masks {
			seq.MaskDir = path + utils.MaskDirSuffix
		}
		seqs = append(seqs, seq)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return seqs, nil
}

func isGenerated(name string) bool {
	for _, suffix := range generatedSuffixes {
		if strings.Contains(name, suffix) {
			return true
		}
	}
	return false
}

func hasFrames(dir string) bool {
	names, err := utils.ListDir(dir)
	if err != nil {
		return false
	}
	for _, name := range names {
		if utils.IsImageFile(name) {
			return true
		}
	}
	return false
}
