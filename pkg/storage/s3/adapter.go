package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"opvault/pkg/core"
	"opvault/pkg/storage"
	"opvault/pkg/types"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// Adapter 实现了 storage.Store 接口
// 多进程共享同一个对象桶时，CAS 的只增语义保证并发 Put 无需协调
type Adapter struct {
	client *s3.Client
	bucket string
}

// Config 用于初始化 Adapter
type Config struct {
	Endpoint        string
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
}

// NewAdapter 初始化 S3 客户端 (适配 AWS SDK v2 规范)
func NewAdapter(ctx context.Context, cfg Config) (*Adapter, error) {
	// 1. 加载基础配置 (仅包含 Region 和 Credentials)
	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID, cfg.SecretAccessKey, "",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}

	// 2. 创建客户端时注入特定于 S3 的配置：使用 BaseEndpoint 而不是全局 Resolver
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}

		// MinIO 必须强制使用 Path Style
		// 即: http://host:9000/bucket/key
		o.UsePathStyle = true
	})

	// 3. 自动创建 Bucket (本地 MinIO 开发时方便；生产建议手动管理)
	_, err = client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: &cfg.Bucket})
	if err != nil {
		_, err = client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: &cfg.Bucket})
		if err != nil {
			slog.Warn("failed to ensure bucket exists", "bucket", cfg.Bucket, "err", err)
		}
	}

	return &Adapter{
		client: client,
		bucket: cfg.Bucket,
	}, nil
}

// transformKey 将哈希转换为 S3 Key (Sharding)
// Logic: "aabbcc..." -> "aa/bbcc..."
func (s *Adapter) transformKey(hash string) string {
	if len(hash) < 2 {
		return hash
	}
	return hash[:2] + "/" + hash[2:]
}

// Put 上传记录
func (s *Adapter) Put(ctx context.Context, obj core.Object) error {
	// 1. 幂等性检查：Head 请求比 Put 便宜，已存在直接跳过
	exists, err := s.Has(ctx, obj.ID())
	if err != nil {
		return fmt.Errorf("s3 put existence check failed: %w", err)
	}
	if exists {
		return nil
	}

	key := s.transformKey(obj.ID())

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(obj.Bytes()),
		ContentType: aws.String("application/cbor"),
	})

	if err != nil {
		return fmt.Errorf("s3 put failed: %w", err)
	}
	return nil
}

// Get 下载记录
func (s *Adapter) Get(ctx context.Context, hash string) (io.ReadCloser, error) {
	resp, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.transformKey(hash)),
	})

	if err != nil {
		// 将 AWS 的 NoSuchKey 错误映射为我们自己的 ErrNotFound
		var noKey *s3types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("s3 get failed: %w", err)
	}

	return resp.Body, nil
}

// Has 检查记录是否存在
func (s *Adapter) Has(ctx context.Context, hash string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.transformKey(hash)),
	})

	if err == nil {
		return true, nil
	}

	var notFound *s3types.NotFound
	var noKey *s3types.NoSuchKey
	if errors.As(err, &notFound) || errors.As(err, &noKey) {
		return false, nil
	}
	// 兼容性：某些 S3 实现可能返回 generic 404 error string
	if strings.Contains(err.Error(), "404") {
		return false, nil
	}

	return false, err
}

// ExpandHash 利用 Prefix 查询扩展短哈希
func (s *Adapter) ExpandHash(ctx context.Context, shortHash types.HashPrefix) (string, error) {
	inputStr := string(shortHash)
	if len(inputStr) < 4 {
		return "", fmt.Errorf("hash prefix too short")
	}

	// 构造前缀: "a8fd" -> "a8/fd"
	prefix := inputStr[:2] + "/" + inputStr[2:]

	// MaxKeys=2 是关键：只需要区分 0 个、1 个(唯一) 或 >1 个(歧义)
	resp, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(s.bucket),
		Prefix:  aws.String(prefix),
		MaxKeys: aws.Int32(2),
	})

	if err != nil {
		return "", fmt.Errorf("s3 list failed: %w", err)
	}

	if *resp.KeyCount == 0 {
		return "", storage.ErrNotFound
	}
	if *resp.KeyCount > 1 {
		return "", storage.ErrAmbiguousHash
	}

	// 还原哈希: "a8/fd123..." -> "a8fd123..."
	key := *resp.Contents[0].Key
	return strings.Replace(key, "/", "", 1), nil
}
