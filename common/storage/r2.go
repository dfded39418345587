package storage

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	commonConfig "github.com/reelforge/reelforge/common/config"
	"github.com/reelforge/reelforge/common/logger"
)

// Enabled reports whether the R2 bucket is configured. Training-data capture
// silently skips the upload when it is not.
func Enabled() bool {
	return commonConfig.R2AccessKey != "" && commonConfig.R2SecretKey != "" &&
		commonConfig.R2BucketName != "" && commonConfig.R2Endpoint != ""
}

func newClient(ctx context.Context) (*s3.Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion("auto"),
		config.WithCredentialsProvider(aws.NewCredentialsCache(
			credentials.NewStaticCredentialsProvider(commonConfig.R2AccessKey, commonConfig.R2SecretKey, ""))),
		config.WithEndpointResolverWithOptions(aws.EndpointResolverWithOptionsFunc(
			func(service, region string, options ...interface{}) (aws.Endpoint, error) {
				return aws.Endpoint{URL: commonConfig.R2Endpoint}, nil
			}),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %v", err)
	}

	// Path-style avoids virtual-host subdomain TLS problems on R2.
	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = true
	}), nil
}

// UploadTrainingArtifact stores one training sample (JSON) under
// training-samples/<date>/<id>.json and returns the object key.
func UploadTrainingArtifact(ctx context.Context, id string, data []byte) (string, error) {
	if !Enabled() {
		return "", fmt.Errorf("R2 configuration is incomplete")
	}

	client, err := newClient(ctx)
	if err != nil {
		return "", err
	}

	objectKey := path.Join("training-samples", time.Now().Format("20060102"), id+".json")
	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(commonConfig.R2BucketName),
		Key:         aws.String(objectKey),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload training artifact: %v", err)
	}

	logger.Info(ctx, fmt.Sprintf("uploaded training artifact: key=%s, size=%d", objectKey, len(data)))
	return objectKey, nil
}
