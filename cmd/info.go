package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/texforge/mipgen/mipmap"
	"github.com/texforge/mipgen/texture"
)

var (
	infoWidth    uint32
	infoHeight   uint32
	infoFormat   string
	infoMinRes   uint32
	infoMaxLvls  uint32
	infoCompress bool
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Print the predicted mip chain for given dimensions and format",
	Long: `Computes the level count, per-level dimensions and byte sizes a
generation run would produce, without touching any pixels.`,
	RunE: runInfo,
}

func init() {
	infoCmd.Flags().Uint32Var(&infoWidth, "width", 0, "source width in texels")
	infoCmd.Flags().Uint32Var(&infoHeight, "height", 0, "source height in texels")
	infoCmd.Flags().StringVar(&infoFormat, "format", "rgba8unorm-srgb", "source pixel format")
	infoCmd.Flags().Uint32Var(&infoMinRes, "min-resolution", 1, "minimum mip resolution floor in texels")
	infoCmd.Flags().Uint32Var(&infoMaxLvls, "max-levels", 0, "maximum level count, 0 = unbounded")
	infoCmd.Flags().BoolVar(&infoCompress, "compress", false, "assume BCn compression")
	_ = infoCmd.MarkFlagRequired("width")
	_ = infoCmd.MarkFlagRequired("height")
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
	if infoWidth == 0 || infoHeight == 0 {
		return fmt.Errorf("width and height must be greater than zero")
	}
	format, err := texture.ParseFormat(infoFormat)
	if err != nil {
		return err
	}

	compressing := false
	if infoCompress {
		target, rerr := mipmap.ResolveBlockFormat(format, infoWidth, infoHeight)
		if rerr != nil {
			fmt.Printf("compression unavailable (%v), sizing uncompressed\n", rerr)
		} else {
			format = target
			compressing = true
		}
	}

	count := mipmap.MipCount(infoWidth, infoHeight, infoMinRes, infoMaxLvls, compressing)
	fmt.Printf("format: %s  levels: %d\n", format, count)

	w, h := infoWidth, infoHeight
	total := 0
	for i := uint32(1); i <= count; i++ {
		size := format.LevelSize(w, h)
		total += size
		fmt.Printf("  level %2d  %5dx%-5d  %8d bytes\n", i, w, h, size)
		w /= 2
		h /= 2
	}
	fmt.Printf("total: %d bytes\n", total)
	return nil
}
