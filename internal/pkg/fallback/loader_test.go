package fallback

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/PaywallBridge/internal/pkg/adapty"
	"github.com/ManuelReschke/PaywallBridge/internal/pkg/bridge"
	"github.com/ManuelReschke/PaywallBridge/internal/pkg/env"
	"github.com/ManuelReschke/PaywallBridge/internal/pkg/sandbox"
)

const fallbackJSON = `{"paywalls":[{"id":"onboarding","abTestName":"fallback","variationId":"fb-1","revision":0,"locale":"en","vendorProductIds":["monthly.premium"]}]}`

type fakeS3 struct {
	objects map[string]string
	input   *s3.GetObjectInput
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.input = in
	body, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewBufferString(body))}, nil
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "paywalls.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFromFile(t *testing.T) {
	doc, err := Load(context.Background(), &Config{Path: writeFile(t, fallbackJSON)})
	require.NoError(t, err)
	assert.Equal(t, fallbackJSON, doc.Raw)
	require.Len(t, doc.Paywalls.Paywalls, 1)

	p, ok := doc.Paywalls.Find("onboarding")
	require.True(t, ok)
	assert.Equal(t, "fb-1", p.VariationID)
}

func TestLoadRejectsInvalidDocument(t *testing.T) {
	_, err := LoadFromFile(writeFile(t, `{"paywalls":[{"id":"x","abTestName":"a","variationId":"","revision":0,"locale":"en"}]}`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, adapty.ErrInvariant))

	_, err = LoadFromFile(writeFile(t, `{"items":[]}`))
	assert.True(t, errors.Is(err, adapty.ErrMissingRequiredField))

	_, err = LoadFromFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestLoadNotConfigured(t *testing.T) {
	_, err := Load(context.Background(), &Config{})
	assert.True(t, errors.Is(err, ErrNotConfigured))
	assert.False(t, (&Config{}).Configured())
}

func TestLoadFromS3(t *testing.T) {
	client := &fakeS3{objects: map[string]string{"paywall-config/fallback/paywalls.json": fallbackJSON}}

	doc, err := LoadFromS3(context.Background(), client, "paywall-config", "fallback/paywalls.json")
	require.NoError(t, err)
	assert.Equal(t, "s3://paywall-config/fallback/paywalls.json", doc.Source)
	assert.Equal(t, "paywall-config", aws.ToString(client.input.Bucket))

	_, err = LoadFromS3(context.Background(), client, "paywall-config", "other.json")
	assert.ErrorContains(t, err, "NoSuchKey")
}

func TestLoadConfig(t *testing.T) {
	env.Env = map[string]string{"FALLBACK_PAYWALLS_FILE": "/etc/paywalls.json"}
	t.Cleanup(func() { env.Env = nil })

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "/etc/paywalls.json", cfg.Path)
	assert.False(t, cfg.S3Enabled)
	assert.True(t, cfg.Configured())

	env.Env["FALLBACK_S3_ENABLED"] = "true"
	env.Env["S3_ACCESS_KEY_ID"] = "key"
	env.Env["S3_SECRET_ACCESS_KEY"] = "secret"
	_, err = LoadConfig()
	assert.ErrorContains(t, err, "FALLBACK_S3_BUCKET")

	env.Env["FALLBACK_S3_BUCKET"] = "paywall-config"
	cfg, err = LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "fallback/paywalls.json", cfg.Key)
}

func TestInstall(t *testing.T) {
	ctx := context.Background()
	sdk := sandbox.New(sandbox.NewMemoryStore(), nil, adapty.PlatformAndroid)
	d := bridge.NewDispatcher(adapty.PlatformAndroid)
	bridge.RegisterSDK(d, sdk)

	doc, err := LoadFromFile(writeFile(t, fallbackJSON))
	require.NoError(t, err)
	require.NoError(t, Install(ctx, d, doc))

	require.NoError(t, sdk.Activate(ctx, bridge.ActivateConfig{SDKKey: "k"}))
	p, ok := sdk.GetPaywall(ctx, "onboarding", nil).Value()
	require.True(t, ok)
	assert.Equal(t, "fb-1", p.VariationID)
}
