package videobackend_test

import (
	"context"
	"testing"
	"time"

	"github.com/matryer/is"
	"github.com/tauraamui/visaged/pkg/video/videobackend"
	"gocv.io/x/gocv"
)

func TestVideoBackendDefaultBackend(t *testing.T) {
	is := is.New(t)
	is.True(videobackend.Default() != nil)
}

func TestVideoBackendResolve(t *testing.T) {
	is := is.New(t)
	is.True(videobackend.Resolve("mock") != nil)
	is.True(videobackend.Resolve("") != nil)
}

func TestOpenCVConnectCancelledMidOpenReleasesLateHandle(t *testing.T) {
	is := is.New(t)

	opened := make(chan struct{})
	releaseOpen := make(chan struct{})
	resetOpen := videobackend.OverloadOpenVideoCapture(func(device int) (*gocv.VideoCapture, error) {
		close(opened)
		<-releaseOpen
		return &gocv.VideoCapture{}, nil
	})
	defer resetOpen()

	handleClosed := make(chan struct{})
	resetClose := videobackend.OverloadCloseVideoCapture(func(vc *gocv.VideoCapture) error {
		close(handleClosed)
		return nil
	})
	defer resetClose()

	ctx, cancel := context.WithCancel(context.Background())
	connResult := make(chan error)
	go func() {
		_, err := videobackend.OpenCV().Connect(ctx, 0, videobackend.Settings{})
		connResult <- err
	}()

	// cancel while the device open is still in flight
	<-opened
	cancel()

	err := <-connResult
	is.True(err != nil)
	is.Equal(err.Error(), "connection cancelled")

	// once the straggling open completes its handle must be released
	close(releaseOpen)
	select {
	case <-handleClosed:
	case <-time.After(3 * time.Second):
		t.Fatal("device handle opened after cancellation was never released")
	}
}

func TestMockBackendConnectAndRead(t *testing.T) {
	is := is.New(t)

	backend := videobackend.Mock()
	conn, err := backend.Connect(context.Background(), 0, videobackend.Settings{
		FrameWidth:  640,
		FrameHeight: 480,
	})
	is.NoErr(err)
	is.True(conn.IsOpen())
	is.True(len(conn.UUID()) > 0)

	frame := backend.NewFrame()
	defer frame.Close()

	is.NoErr(conn.Read(frame))
	dims := frame.Dimensions()
	is.Equal(dims.W, 640)
	is.Equal(dims.H, 480)

	is.NoErr(conn.Close())
}

func TestMockBackendReadScalesToRequestedResolution(t *testing.T) {
	is := is.New(t)

	backend := videobackend.Mock()
	conn, err := backend.Connect(context.Background(), 0, videobackend.Settings{
		FrameWidth:  320,
		FrameHeight: 240,
	})
	is.NoErr(err)

	frame := backend.NewFrame()
	defer frame.Close()

	is.NoErr(conn.Read(frame))
	dims := frame.Dimensions()
	is.Equal(dims.W, 320)
	is.Equal(dims.H, 240)

	is.NoErr(conn.Close())
}
