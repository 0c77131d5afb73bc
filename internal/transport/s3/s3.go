package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	smithyhttp "github.com/aws/smithy-go/transport/http"
	"github.com/gabriel-vasile/mimetype"

	"freighter/internal/config"
	"freighter/internal/logging"
	"freighter/internal/transport"
)

// Transport uploads files to an S3 (or S3-compatible) bucket using the SDK's
// multipart upload manager.
type Transport struct {
	uploader *manager.Uploader
	logger   *slog.Logger
	bucket   string
	prefix   string
}

// New builds an S3 transport from configuration. Credentials resolve through
// the default AWS chain (environment, shared config, instance role).
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Transport, error) {
	if cfg.S3.Bucket == "" {
		return nil, errors.New("s3.bucket must be configured")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.S3.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := awss3.NewFromConfig(awsCfg, func(o *awss3.Options) {
		if cfg.S3.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3.Endpoint)
		}
		o.UsePathStyle = cfg.S3.ForcePathStyle
	})

	uploader := manager.NewUploader(client, func(u *manager.Uploader) {
		if cfg.S3.PartSizeMiB > 0 {
			u.PartSize = int64(cfg.S3.PartSizeMiB) << 20
		}
	})

	return &Transport{
		uploader: uploader,
		logger:   logging.NewComponentLogger(logger, "s3"),
		bucket:   cfg.S3.Bucket,
		prefix:   cfg.S3.KeyPrefix,
	}, nil
}

// Transfer uploads one file, reporting cumulative bytes through onProgress.
// Remote rejections surface as transport.StatusError so the retry policy can
// classify them by status class.
func (t *Transport) Transfer(ctx context.Context, req transport.Request, onProgress transport.ProgressFunc) (*transport.Descriptor, error) {
	body := req.Body
	contentType := req.MimeType
	if body == nil {
		if req.Path == "" {
			return nil, &transport.ValidationError{Reason: "no file path or body supplied"}
		}
		file, err := os.Open(req.Path)
		if err != nil {
			return nil, &transport.ValidationError{Reason: fmt.Sprintf("open %s: %v", req.Path, err)}
		}
		defer file.Close()
		body = file

		if contentType == "" {
			if detected, err := mimetype.DetectReader(file); err == nil {
				contentType = detected.String()
			}
			// Detection read the head of the handle we stream from.
			if _, err := file.Seek(0, io.SeekStart); err != nil {
				return nil, fmt.Errorf("rewind %s: %w", req.Path, err)
			}
		}
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	key := t.objectKey(req)
	input := &awss3.PutObjectInput{
		Bucket:      aws.String(t.bucket),
		Key:         aws.String(key),
		Body:        newProgressReader(body, onProgress),
		ContentType: aws.String(contentType),
	}
	metadata := make(map[string]string, 2)
	if req.Category != "" {
		metadata["category"] = req.Category
	}
	if req.FieldLabel != "" {
		metadata["field-label"] = req.FieldLabel
	}
	if len(metadata) > 0 {
		input.Metadata = metadata
	}

	out, err := t.uploader.Upload(ctx, input)
	if err != nil {
		return nil, wrapUploadError(err)
	}

	t.logger.Debug("object stored",
		logging.String("bucket", t.bucket),
		logging.String("key", key),
		logging.Int64("bytes", req.ByteSize),
	)

	return &transport.Descriptor{
		Location: out.Location,
		Key:      key,
		ETag:     aws.ToString(out.ETag),
	}, nil
}

func (t *Transport) objectKey(req transport.Request) string {
	parts := make([]string, 0, 3)
	if t.prefix != "" {
		parts = append(parts, t.prefix)
	}
	if req.Category != "" {
		parts = append(parts, req.Category)
	}
	parts = append(parts, req.Filename)
	return path.Join(parts...)
}

// wrapUploadError translates SDK response errors into the transport error
// taxonomy so 4xx rejections stay terminal and 5xx failures stay retryable.
func wrapUploadError(err error) error {
	var respErr *smithyhttp.ResponseError
	if errors.As(err, &respErr) {
		return &transport.StatusError{
			Code:    respErr.HTTPStatusCode(),
			Message: err.Error(),
		}
	}
	return fmt.Errorf("upload: %w", err)
}
