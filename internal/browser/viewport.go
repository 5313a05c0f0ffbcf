package browser

import (
	"context"
	"fmt"

	"github.com/chromedp/chromedp"
)

// Viewport is one emulated screen. Mobile viewports also enable touch so
// pages that branch on pointer capabilities render their mobile layout.
type Viewport struct {
	Name   string  `yaml:"name" json:"name" validate:"required"`
	Width  int     `yaml:"width" json:"width" validate:"required,min=1"`
	Height int     `yaml:"height" json:"height" validate:"required,min=1"`
	Mobile bool    `yaml:"mobile,omitempty" json:"mobile,omitempty"`
	Scale  float64 `yaml:"scale,omitempty" json:"scale,omitempty" validate:"omitempty,gt=0"`
}

// String renders the dimensions the way snapshot names spell them.
func (v Viewport) String() string {
	return fmt.Sprintf("%dx%d", v.Width, v.Height)
}

// SetViewport applies the viewport to the tab. Emulation persists until the
// next SetViewport on the same tab, so pooled tabs must set it per job.
func SetViewport(ctx context.Context, v Viewport) error {
	var opts []chromedp.EmulateViewportOption
	if v.Scale > 0 {
		opts = append(opts, chromedp.EmulateScale(v.Scale))
	}
	if v.Mobile {
		opts = append(opts, chromedp.EmulateMobile, chromedp.EmulateTouch)
	}
	if err := chromedp.Run(ctx, chromedp.EmulateViewport(int64(v.Width), int64(v.Height), opts...)); err != nil {
		return fmt.Errorf("set viewport %s: %w", v, err)
	}
	return nil
}
