package cmd

import (
	"encoding/json"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/texforge/mipgen/mipmap"
	"github.com/texforge/mipgen/texture"
)

var (
	genOutDir   string
	genFilter   string
	genMinRes   uint32
	genMaxLvls  uint32
	genCompress string
	genCacheDir string
	genLinear   bool
	genWorkers  int
)

var genCmd = &cobra.Command{
	Use:   "gen <file_or_dir>",
	Short: "Generate a mipmap pyramid for one image or a directory of images",
	Long: `Decodes source images (png, jpg, gif, bmp, tiff, webp), generates the
full mip pyramid, and writes the result to the output directory.

Uncompressed output is written as one PNG per level. With --compress, every
level is BC7-encoded and the chain is written as a single .bcn payload.
A chain manifest (<key>.mipchain.json) describes the levels either way.`,
	Args: cobra.ExactArgs(1),
	RunE: runGen,
}

func init() {
	genCmd.Flags().StringVarP(&genOutDir, "out", "o", "./mipgen_out", "output directory")
	genCmd.Flags().StringVar(&genFilter, "filter", "triangle", "resampling filter: box, triangle, catmullrom, lanczos")
	genCmd.Flags().Uint32Var(&genMinRes, "min-resolution", 1, "minimum mip resolution floor in texels")
	genCmd.Flags().Uint32Var(&genMaxLvls, "max-levels", 0, "maximum level count, 0 = unbounded")
	genCmd.Flags().StringVar(&genCompress, "compress", "", "BCn compression speed: ultrafast, veryfast, fast, medium, slow")
	genCmd.Flags().StringVar(&genCacheDir, "cache-dir", "", "directory for the compressed-data disk cache")
	genCmd.Flags().BoolVar(&genLinear, "linear", false, "treat sources as linear instead of sRGB")
	genCmd.Flags().IntVarP(&genWorkers, "workers", "w", 0, "parallel workers for directory input (0 = NumCPU)")
	rootCmd.AddCommand(genCmd)
}

// chainManifest describes one generated mip chain.
type chainManifest struct {
	Source string       `json:"source"`
	Format string       `json:"format"`
	Levels []chainLevel `json:"levels"`
}

type chainLevel struct {
	Level  int    `json:"level"`
	Width  uint32 `json:"width"`
	Height uint32 `json:"height"`
	Size   int    `json:"size"`
	Path   string `json:"path,omitempty"`
}

func runGen(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	start := time.Now()

	settings, err := genSettings()
	if err != nil {
		return err
	}

	info, err := os.Stat(args[0])
	if err != nil {
		return fmt.Errorf("stat input: %w", err)
	}
	if err := os.MkdirAll(genOutDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	var sources []string
	if info.IsDir() {
		sources, err = scanImages(args[0])
		if err != nil {
			return fmt.Errorf("scan: %w", err)
		}
		if len(sources) == 0 {
			return fmt.Errorf("no images found in %s", args[0])
		}
	} else {
		sources = []string{args[0]}
	}

	workers := genWorkers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	// One image's failure never aborts its siblings.
	errs := make([]error, len(sources))
	var wg sync.WaitGroup
	sem := make(chan struct{}, workers)
	for i, src := range sources {
		wg.Add(1)
		go func(idx int, path string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			errs[idx] = generateOne(path, settings, logger)
		}(i, src)
	}
	wg.Wait()

	failed := 0
	for i, e := range errs {
		if e != nil {
			failed++
			logger.Error().Str("source", sources[i]).Err(e).Msg("generation failed")
		}
	}
	if failed == len(sources) {
		return fmt.Errorf("all %d images failed", failed)
	}
	fmt.Printf("generated %d of %d mip chains in %s\n",
		len(sources)-failed, len(sources), time.Since(start).Round(time.Millisecond))
	return nil
}

func genSettings() (mipmap.Settings, error) {
	s := mipmap.DefaultSettings()
	ft, err := mipmap.ParseFilterType(genFilter)
	if err != nil {
		return s, err
	}
	s.FilterType = ft
	s.MinimumMipResolution = genMinRes
	s.MaxMipLevels = genMaxLvls
	s.CachePath = genCacheDir
	if genCompress != "" {
		speed, err := mipmap.ParseCompressionSpeed(genCompress)
		if err != nil {
			return s, err
		}
		s.Compression = &speed
	}
	return s, s.Validate()
}

func generateOne(path string, settings mipmap.Settings, logger zerolog.Logger) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	decoded, _, err := image.Decode(f)
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}

	format := texture.RGBA8UnormSrgb
	if genLinear {
		format = texture.RGBA8Unorm
	}
	img := textureFromImage(decoded, format)

	if _, err := mipmap.GenerateTexture(img, settings, logger); err != nil {
		return err
	}
	return writeChain(path, img)
}

// textureFromImage flattens any decoded image into an RGBA8 texture.
func textureFromImage(src image.Image, format texture.Format) *texture.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	nrgba, ok := src.(*image.NRGBA)
	if !ok || nrgba.Rect.Min != (image.Point{}) || nrgba.Stride != w*4 {
		nrgba = image.NewNRGBA(image.Rect(0, 0, w, h))
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				nrgba.Set(x, y, src.At(b.Min.X+x, b.Min.Y+y))
			}
		}
	}
	return texture.New2D(uint32(w), uint32(h), format, nrgba.Pix)
}

// writeChain writes the generated chain and its manifest to the output dir.
func writeChain(srcPath string, img *texture.Image) error {
	key := strings.TrimSuffix(filepath.Base(srcPath), filepath.Ext(srcPath))
	m := chainManifest{Source: filepath.Base(srcPath), Format: img.Format.String()}

	if img.Format.IsCompressed() {
		outPath := filepath.Join(genOutDir, key+".bcn")
		if err := os.WriteFile(outPath, img.Data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", outPath, err)
		}
		w, h := img.Width, img.Height
		for i := uint32(1); i <= img.MipLevelCount; i++ {
			m.Levels = append(m.Levels, chainLevel{
				Level: int(i), Width: w, Height: h,
				Size: img.Format.LevelSize(w, h),
				Path: filepath.Base(outPath),
			})
			w /= 2
			h /= 2
		}
	} else {
		for i := uint32(1); i <= img.MipLevelCount; i++ {
			level, err := texture.ExtractMipLevel(img, i)
			if err != nil {
				return err
			}
			raster, err := texture.ToNRGBA(level)
			if err != nil {
				return err
			}
			name := fmt.Sprintf("%s.mip%d.png", key, i)
			outPath := filepath.Join(genOutDir, name)
			pf, err := os.Create(outPath)
			if err != nil {
				return fmt.Errorf("create %s: %w", outPath, err)
			}
			if err := png.Encode(pf, raster); err != nil {
				pf.Close()
				return fmt.Errorf("encode %s: %w", outPath, err)
			}
			if err := pf.Close(); err != nil {
				return err
			}
			m.Levels = append(m.Levels, chainLevel{
				Level: int(i), Width: level.Width, Height: level.Height,
				Size: len(level.Data), Path: name,
			})
		}
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(genOutDir, key+".mipchain.json"), data, 0o644)
}

// imageExtensions lists recognized image file extensions.
var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".webp": true,
	".gif":  true,
	".bmp":  true,
	".tiff": true,
	".tif":  true,
}

// scanImages walks dir and returns every image file under it.
func scanImages(dir string) ([]string, error) {
	var sources []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if strings.HasPrefix(info.Name(), ".") && info.Name() != "." {
				return filepath.SkipDir
			}
			return nil
		}
		if imageExtensions[strings.ToLower(filepath.Ext(path))] {
			sources = append(sources, path)
		}
		return nil
	})
	return sources, err
}
