package imagematch

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	vision "cloud.google.com/go/vision/v2/apiv1"
	visionpb "cloud.google.com/go/vision/v2/apiv1/visionpb"
	"google.golang.org/api/option"
)

// TextExtractor reads text out of an image file. Callers treat failures as
// "no text".
type TextExtractor interface {
	ExtractText(ctx context.Context, path string) (string, error)
}

// NoopExtractor never finds text.
type NoopExtractor struct{}

func (NoopExtractor) ExtractText(context.Context, string) (string, error) { return "", nil }

type annotateFunc func(context.Context, *visionpb.BatchAnnotateImagesRequest) (*visionpb.BatchAnnotateImagesResponse, error)

// VisionExtractor runs DOCUMENT_TEXT_DETECTION through Google Cloud Vision.
type VisionExtractor struct {
	annotate annotateFunc
	closer   func() error
	Timeout  time.Duration
}

// NewVisionExtractor dials the Vision API. Credentials come from the
// environment unless opts override them.
func NewVisionExtractor(ctx context.Context, opts ...option.ClientOption) (*VisionExtractor, error) {
	c, err := vision.NewImageAnnotatorClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("vision client: %w", err)
	}
	annotate := func(ctx context.Context, req *visionpb.BatchAnnotateImagesRequest) (*visionpb.BatchAnnotateImagesResponse, error) {
		return c.BatchAnnotateImages(ctx, req)
	}
	return &VisionExtractor{annotate: annotate, closer: c.Close, Timeout: 60 * time.Second}, nil
}

// ExtractText uploads the image bytes and returns the full text annotation.
func (v *VisionExtractor) ExtractText(ctx context.Context, path string) (string, error) {
	img, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if len(img) == 0 {
		return "", nil
	}
	if v.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, v.Timeout)
		defer cancel()
	}
	req := &visionpb.BatchAnnotateImagesRequest{Requests: []*visionpb.AnnotateImageRequest{{
		Image:    &visionpb.Image{Content: img},
		Features: []*visionpb.Feature{{Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION}},
	}}}
	resp, err := v.annotate(ctx, req)
	if err != nil {
		return "", fmt.Errorf("vision annotate: %w", err)
	}
	if resp == nil || len(resp.Responses) == 0 || resp.Responses[0] == nil {
		return "", nil
	}
	r0 := resp.Responses[0]
	if r0.Error != nil && r0.Error.Message != "" {
		return "", fmt.Errorf("vision annotate: %s", r0.Error.Message)
	}
	if r0.FullTextAnnotation == nil {
		return "", nil
	}
	return strings.Join(strings.Fields(r0.FullTextAnnotation.Text), " "), nil
}

// Close releases the underlying client.
func (v *VisionExtractor) Close() error {
	if v == nil || v.closer == nil {
		return nil
	}
	return v.closer()
}
