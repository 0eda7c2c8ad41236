// Command frameblur blurs a still image through the frameblur pipeline.
//
// Usage:
//
//	frameblur -i input.jpg -o blurred.png --type gaussian --size 12
//	frameblur -i input.png -s settings.yaml --region 10,10,10,10 --feather 5
//
// Settings are read from the YAML file first; flags given on the command
// line override them.
package main

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"io"
	"log/slog"
	"os"

	"github.com/gogpu/gputypes"
	"github.com/spf13/pflag"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/gogpu/frameblur"
	"github.com/gogpu/frameblur/backend"
	_ "github.com/gogpu/frameblur/backend/wgpu"
	"github.com/gogpu/frameblur/gfx"
)

var errUsage = errors.New("usage")

type options struct {
	input    string
	output   string
	settings string
	backend  string
	verbose  bool

	algorithm    string
	size         int
	smoothing    float64
	sharpness    float64
	region       []float64
	feather      float64
	featherShift float64
	invert       bool
	yuv          bool
}

func parseFlags(args []string, stderr io.Writer) (*options, *pflag.FlagSet, error) {
	o := &options{}
	fs := pflag.NewFlagSet("frameblur", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVarP(&o.input, "input", "i", "", "input image (png, jpeg, bmp, tiff, webp)")
	fs.StringVarP(&o.output, "output", "o", "blurred.png", "output PNG file")
	fs.StringVarP(&o.settings, "settings", "s", "", "YAML settings file")
	fs.StringVar(&o.backend, "backend", "", "device backend (default: best available)")
	fs.BoolVarP(&o.verbose, "verbose", "v", false, "debug logging")

	fs.StringVarP(&o.algorithm, "type", "t", "box", "blur algorithm: box, gaussian or bilateral")
	fs.IntVar(&o.size, "size", 5, "blur radius in texels")
	fs.Float64Var(&o.smoothing, "smoothing", 50, "bilateral smoothing, percent")
	fs.Float64Var(&o.sharpness, "sharpness", 90, "bilateral sharpness, percent")
	fs.Float64SliceVar(&o.region, "region", nil, "blur region insets in percent: left,top,right,bottom")
	fs.Float64Var(&o.feather, "feather", 0, "region feather width, percent")
	fs.Float64Var(&o.featherShift, "feather-shift", 0, "region feather shift, percent")
	fs.BoolVar(&o.invert, "invert", false, "blur outside the region")
	fs.BoolVar(&o.yuv, "yuv", false, "blur in YUV space")

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	if o.input == "" {
		fs.Usage()
		return nil, nil, fmt.Errorf("%w: --input is required", errUsage)
	}
	return o, fs, nil
}

// loadSettings reads the settings file and applies the flags that were
// set explicitly.
func loadSettings(o *options, fs *pflag.FlagSet) (*frameblur.Settings, error) {
	s := frameblur.NewSettings()
	if o.settings != "" {
		data, err := os.ReadFile(o.settings)
		if err != nil {
			return nil, err
		}
		if s, err = frameblur.ParseSettingsYAML(data); err != nil {
			return nil, fmt.Errorf("%s: %w", o.settings, err)
		}
	}

	if fs.Changed("type") {
		a, err := frameblur.ParseAlgorithm(o.algorithm)
		if err != nil {
			return nil, err
		}
		s.SetInt(frameblur.KeyType, int64(a))
	}
	if fs.Changed("size") {
		s.SetInt(frameblur.KeySize, int64(o.size))
	}
	if fs.Changed("smoothing") {
		s.SetFloat(frameblur.KeyBilateralSmoothing, o.smoothing)
	}
	if fs.Changed("sharpness") {
		s.SetFloat(frameblur.KeyBilateralSharpness, o.sharpness)
	}
	if fs.Changed("region") {
		if len(o.region) != 4 {
			return nil, fmt.Errorf("%w: --region takes 4 values, got %d", errUsage, len(o.region))
		}
		s.SetBool(frameblur.KeyRegionEnabled, true)
		s.SetFloat(frameblur.KeyRegionLeft, o.region[0])
		s.SetFloat(frameblur.KeyRegionTop, o.region[1])
		s.SetFloat(frameblur.KeyRegionRight, o.region[2])
		s.SetFloat(frameblur.KeyRegionBottom, o.region[3])
	}
	if fs.Changed("feather") {
		s.SetFloat(frameblur.KeyRegionFeather, o.feather)
	}
	if fs.Changed("feather-shift") {
		s.SetFloat(frameblur.KeyRegionFeatherShift, o.featherShift)
	}
	if fs.Changed("invert") {
		s.SetBool(frameblur.KeyRegionInvert, o.invert)
	}
	if fs.Changed("yuv") {
		s.SetBool(frameblur.KeyAdvanced, true)
		format := frameblur.ColorFormatRGB
		if o.yuv {
			format = frameblur.ColorFormatYUV
		}
		s.SetInt(frameblur.KeyColorFormat, int64(format))
	}
	return s, nil
}

func openDevice(name string) (gfx.Device, error) {
	if name == "" {
		return backend.OpenDefault()
	}
	return backend.Open(name)
}

func readImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return img, nil
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("%s: %w", path, err)
	}
	return f.Close()
}

// blur runs one frame of settings over img on dev.
func blur(dev gfx.Device, img image.Image, settings *frameblur.Settings) (*image.RGBA, error) {
	reader, ok := dev.(frameblur.ImageReader)
	if !ok {
		return nil, fmt.Errorf("device %s cannot read images back", dev.Name())
	}
	shared, err := frameblur.NewShared(dev)
	if err != nil {
		return nil, err
	}
	defer shared.Close()

	src, err := frameblur.NewImageSource(dev, "input", img)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	f, err := frameblur.New(shared, settings, src)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rt, err := dev.CreateRenderTarget("output", gputypes.TextureFormatRGBA8Unorm)
	if err != nil {
		return nil, err
	}
	defer rt.Destroy()

	w, h := src.Size()
	out, err := rt.Begin(w, h)
	if err != nil {
		return nil, err
	}
	out.Clear(gputypes.Color{})
	result := f.Render(out, nil)
	if err := rt.End(); err != nil {
		return nil, err
	}
	if result != frameblur.Rendered {
		return nil, fmt.Errorf("frame %s", result)
	}
	return reader.ReadImage(rt.Texture())
}

func run(args []string, stderr io.Writer) error {
	o, fs, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}
	level := slog.LevelInfo
	if o.verbose {
		level = slog.LevelDebug
	}
	frameblur.SetLogger(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})))

	settings, err := loadSettings(o, fs)
	if err != nil {
		return err
	}
	img, err := readImage(o.input)
	if err != nil {
		return err
	}
	dev, err := openDevice(o.backend)
	if err != nil {
		return err
	}
	if c, ok := dev.(interface{ Close() }); ok {
		defer c.Close()
	}
	frameblur.Logger().Info("frameblur: device opened", "device", dev.Name())

	res, err := blur(dev, img, settings)
	if err != nil {
		return err
	}
	if err := writePNG(o.output, res); err != nil {
		return err
	}
	cfg := frameblur.NewConfig(settings)
	frameblur.Logger().Info("frameblur: wrote output", "path", o.output,
		"algorithm", cfg.Algorithm, "radius", cfg.Radius, "region", cfg.Region.Enabled)
	return nil
}

func main() {
	if err := run(os.Args[1:], os.Stderr); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "frameblur: %v\n", err)
		os.Exit(1)
	}
}
