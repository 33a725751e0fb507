package imagematch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	visionpb "cloud.google.com/go/vision/v2/apiv1/visionpb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genproto/googleapis/rpc/status"
)

func TestVisionExtractor(t *testing.T) {
	p := filepath.Join(t.TempDir(), "scan.png")
	require.NoError(t, os.WriteFile(p, []byte{1, 2, 3}, 0o644))

	var seen *visionpb.BatchAnnotateImagesRequest
	v := &VisionExtractor{annotate: func(_ context.Context, req *visionpb.BatchAnnotateImagesRequest) (*visionpb.BatchAnnotateImagesResponse, error) {
		seen = req
		return &visionpb.BatchAnnotateImagesResponse{Responses: []*visionpb.AnnotateImageResponse{{
			FullTextAnnotation: &visionpb.TextAnnotation{Text: "Figure 1\n  throughput "},
		}}}, nil
	}}
	text, err := v.ExtractText(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, "Figure 1 throughput", text)
	require.Len(t, seen.Requests, 1)
	assert.Equal(t, visionpb.Feature_DOCUMENT_TEXT_DETECTION, seen.Requests[0].Features[0].Type)
	assert.Equal(t, []byte{1, 2, 3}, seen.Requests[0].Image.Content)
	assert.NoError(t, v.Close())
}

func TestVisionExtractor_Errors(t *testing.T) {
	p := filepath.Join(t.TempDir(), "scan.png")
	require.NoError(t, os.WriteFile(p, []byte{1}, 0o644))

	v := &VisionExtractor{annotate: func(context.Context, *visionpb.BatchAnnotateImagesRequest) (*visionpb.BatchAnnotateImagesResponse, error) {
		return nil, errors.New("unavailable")
	}}
	_, err := v.ExtractText(context.Background(), p)
	assert.Error(t, err)

	v.annotate = func(context.Context, *visionpb.BatchAnnotateImagesRequest) (*visionpb.BatchAnnotateImagesResponse, error) {
		return &visionpb.BatchAnnotateImagesResponse{Responses: []*visionpb.AnnotateImageResponse{{
			Error: &status.Status{Message: "bad image"},
		}}}, nil
	}
	_, err = v.ExtractText(context.Background(), p)
	assert.ErrorContains(t, err, "bad image")

	_, err = v.ExtractText(context.Background(), filepath.Join(t.TempDir(), "none.png"))
	assert.Error(t, err)

	text, err := NoopExtractor{}.ExtractText(context.Background(), p)
	assert.NoError(t, err)
	assert.Empty(t, text)
}
