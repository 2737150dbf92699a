package videobackend

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	"time"

	"github.com/disintegration/imaging"
	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"github.com/google/uuid"
	"github.com/tauraamui/visaged/pkg/video/videoframe"
	"github.com/tauraamui/xerror"
	"gocv.io/x/gocv"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/math/fixed"
)

// mockVideoBackend serves synthetic frames so the daemon and its
// tests run without any capture hardware present.
type mockVideoBackend struct{}

func (b *mockVideoBackend) Connect(cancel context.Context, device int, sett Settings) (Connection, error) {
	w, h := sett.FrameWidth, sett.FrameHeight
	if w == 0 || h == 0 {
		w, h = 640, 480
	}
	return &mockVideoConnection{frameWidth: w, frameHeight: h}, nil
}

func (b *mockVideoBackend) NewFrame() videoframe.Frame {
	return &openCVFrame{mat: gocv.NewMat()}
}

type mockVideoConnection struct {
	uuid                    string
	frameWidth              int
	frameHeight             int
	renderedBaseFrameCanvas bool
	baseFrameCanvas         image.Image
}

func (mvc *mockVideoConnection) UUID() string {
	if len(mvc.uuid) == 0 {
		mvc.uuid = uuid.NewString()
	}
	return mvc.uuid
}

func (mvc *mockVideoConnection) Read(frame videoframe.Frame) error {
	frameMatRef, ok := frame.DataRef().(*gocv.Mat)
	if !ok {
		return xerror.New("must pass OpenCV frame to MockVideo connection read")
	}

	if !mvc.renderedBaseFrameCanvas {
		mvc.baseFrameCanvas = renderBaseFrameCanvas(mvc.frameWidth, mvc.frameHeight)
		mvc.renderedBaseFrameCanvas = true
	}

	img, err := drawTextLayerOntoBaseFrameClone(mvc.baseFrameCanvas)
	if err != nil {
		return err
	}

	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return xerror.Errorf("unable to convert Go image into OpenCV mat: %w", err)
	}
	defer mat.Close()

	mat.CopyTo(frameMatRef)

	return nil
}

func (mvc *mockVideoConnection) IsOpen() bool {
	return true
}

func (mvc *mockVideoConnection) Close() error {
	mvc.renderedBaseFrameCanvas = false
	mvc.baseFrameCanvas = nil
	return nil
}

func drawTextLayerOntoBaseFrameClone(base image.Image) (image.Image, error) {
	baseClone := cloneImage(base)
	err := drawText(baseClone, 5, 50, "VISAGED_OFFLINE_STREAM")
	if err != nil {
		return nil, xerror.Errorf("unable to draw text onto in-mem image for offline stream: %w", err)
	}

	err = drawText(baseClone, 5, 180, time.Now().Format("2006-01-02 15:04:05.999999999"))
	if err != nil {
		return nil, xerror.Errorf("unable to draw text onto in-mem image for offline stream: %w", err) //nolint
	}
	return baseClone, nil
}

// renderBaseFrameCanvas paints a plain backdrop with a head-and-
// shoulders style silhouette roughly centred in frame, which gives
// the detector something face-shaped to chew on when a mock capture
// feeds the real pipeline. The scene is rendered at a fixed 640x480
// and rescaled to whatever capture resolution was requested.
func renderBaseFrameCanvas(targetW, targetH int) image.Image {
	const w, h = 640, 480
	canvas := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(canvas, canvas.Bounds(), &image.Uniform{color.RGBA{0x20, 0x24, 0x28, 0xFF}}, image.Point{}, draw.Src)

	skin := color.RGBA{0xC8, 0xA8, 0x8A, 0xFF}
	cx, cy := float64(w)/2, float64(h)/2
	head := &ellipse{X: cx, Y: cy - float64(h)/12, RX: float64(w) / 8, RY: float64(h) / 6}
	torso := &ellipse{X: cx, Y: cy + float64(h)/3, RX: float64(w) / 4, RY: float64(h) / 5}

	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			fx, fy := float64(x), float64(y)
			if head.Contains(fx, fy) || torso.Contains(fx, fy) {
				canvas.Set(x, y, skin)
			}
		}
	}

	// dark eye and mouth patches inside the head region
	for _, feature := range []ellipse{
		{X: cx - head.RX/2.5, Y: head.Y - head.RY/4, RX: head.RX / 5, RY: head.RY / 8},
		{X: cx + head.RX/2.5, Y: head.Y - head.RY/4, RX: head.RX / 5, RY: head.RY / 8},
		{X: cx, Y: head.Y + head.RY/2, RX: head.RX / 3, RY: head.RY / 10},
	} {
		for x := 0; x < w; x++ {
			for y := 0; y < h; y++ {
				if feature.Contains(float64(x), float64(y)) {
					canvas.Set(x, y, color.RGBA{0x30, 0x26, 0x20, 0xFF})
				}
			}
		}
	}

	if targetW != w || targetH != h {
		return imaging.Resize(canvas, targetW, targetH, imaging.Lanczos)
	}
	return canvas
}

func cloneImage(src image.Image) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(b)
	draw.Draw(dst, b, src, b.Min, draw.Src)
	return dst
}

func drawText(canvas *image.RGBA, x, y int, text string) error {
	var (
		fgColor  image.Image
		fontFace *truetype.Font
		err      error
		fontSize = 24.0
	)
	fgColor = image.White
	fontFace, err = freetype.ParseFont(goregular.TTF)
	fontDrawer := &font.Drawer{
		Dst: canvas,
		Src: fgColor,
		Face: truetype.NewFace(fontFace, &truetype.Options{
			Size:    fontSize,
			Hinting: font.HintingFull,
		}),
	}
	textBounds, _ := fontDrawer.BoundString(text)
	textHeight := textBounds.Max.Y - textBounds.Min.Y
	yPosition := fixed.I((y)-textHeight.Ceil())/2 + fixed.I(textHeight.Ceil())
	fontDrawer.Dot = fixed.Point26_6{
		X: fixed.I(x),
		Y: yPosition,
	}
	fontDrawer.DrawString(text)
	return err
}

type ellipse struct {
	X, Y, RX, RY float64
}

func (e *ellipse) Contains(x, y float64) bool {
	dx, dy := (x-e.X)/e.RX, (y-e.Y)/e.RY
	return dx*dx+dy*dy <= 1
}
