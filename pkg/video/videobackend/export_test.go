package videobackend

import "gocv.io/x/gocv"

func OverloadOpenVideoCapture(overload func(int) (*gocv.VideoCapture, error)) func() {
	ref := openVideoCapture
	openVideoCapture = overload
	return func() { openVideoCapture = ref }
}

func OverloadCloseVideoCapture(overload func(*gocv.VideoCapture) error) func() {
	ref := closeVideoCapture
	closeVideoCapture = overload
	return func() { closeVideoCapture = ref }
}
