// Package external declares the Sampler Supervisor's external
// collaborators: cloud metadata detection, server inventory, and the
// pricing/historical-lookup interfaces a host workflow system would
// implement. Pricing and historical lookup are contracts only, so this
// module keeps running standalone without depending on an external
// workflow engine.
package external

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

// MetadataTimeout bounds every individual cloud-metadata HTTP call.
const MetadataTimeout = 2 * time.Second

// CloudInfo is the standardized result of cloud detection.
type CloudInfo struct {
	Vendor       string
	InstanceType string
	Region       string
}

var unknownCloud = CloudInfo{Vendor: "unknown", InstanceType: "unknown", Region: "unknown"}

var (
	cloudOnce   sync.Once
	cloudResult CloudInfo
)

// DetectCloud tries, in sequence, AWS IMDSv2, GCP, Azure, Hetzner, and
// UpCloud metadata endpoints, returning the first success. All failures
// collapse to {"unknown","unknown","unknown"}. The result of the first
// call, the all-unknown fallback included, is memoized for the process
// lifetime.
func DetectCloud(ctx context.Context) CloudInfo {
	cloudOnce.Do(func() {
		for _, check := range []func(context.Context) (CloudInfo, bool){
			checkAWS, checkGCP, checkAzure, checkHetzner, checkUpCloud,
		} {
			if info, ok := check(ctx); ok {
				cloudResult = info
				return
			}
		}
		cloudResult = unknownCloud
	})
	return cloudResult
}

func metadataGet(ctx context.Context, url string, headers map[string]string) (string, error) {
	return metadataDo(ctx, http.MethodGet, url, headers)
}

func metadataDo(ctx context.Context, method, url string, headers map[string]string) (string, error) {
	reqCtx, cancel := context.WithTimeout(ctx, MetadataTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, method, url, nil)
	if err != nil {
		return "", err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return "", errStatus(resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(body)), nil
}

type errStatus int

func (e errStatus) Error() string { return "external: unexpected metadata status" }

// checkAWS mirrors _check_aws: fetch an IMDSv2 token via PUT, then the
// instance-type and region documents using that token.
func checkAWS(ctx context.Context) (CloudInfo, bool) {
	token, err := metadataDo(ctx, http.MethodPut,
		"http://169.254.169.254/latest/api/token",
		map[string]string{"X-aws-ec2-metadata-token-ttl-seconds": "21600"})
	if err != nil {
		return CloudInfo{}, false
	}

	headers := map[string]string{"X-aws-ec2-metadata-token": token}
	instanceType := "unknown"
	if v, err := metadataGet(ctx, "http://169.254.169.254/latest/meta-data/instance-type", headers); err == nil {
		instanceType = v
	}
	region := "unknown"
	if v, err := metadataGet(ctx, "http://169.254.169.254/latest/meta-data/placement/region", headers); err == nil {
		region = v
	}
	return CloudInfo{Vendor: "aws", InstanceType: instanceType, Region: region}, true
}

// checkGCP mirrors _check_gcp: machine-type and zone documents, each
// trailing-segment-extracted from their projects/.../TYPE paths.
func checkGCP(ctx context.Context) (CloudInfo, bool) {
	headers := map[string]string{"Metadata-Flavor": "Google"}

	machineType, err := metadataGet(ctx, "http://metadata.google.internal/computeMetadata/v1/instance/machine-type", headers)
	if err != nil {
		return CloudInfo{}, false
	}
	instanceType := lastPathSegment(machineType)

	zoneText, err := metadataGet(ctx, "http://metadata.google.internal/computeMetadata/v1/instance/zone", headers)
	if err != nil {
		return CloudInfo{}, false
	}
	zone := lastPathSegment(zoneText)
	region := zone
	if idx := strings.LastIndex(zone, "-"); idx >= 0 {
		region = zone[:idx]
	}

	return CloudInfo{Vendor: "gcp", InstanceType: instanceType, Region: region}, true
}

func lastPathSegment(s string) string {
	parts := strings.Split(s, "/")
	return parts[len(parts)-1]
}

// checkAzure mirrors _check_azure: a single JSON document, vmSize/location
// extracted from its "compute" object.
func checkAzure(ctx context.Context) (CloudInfo, bool) {
	body, err := metadataGet(ctx,
		"http://169.254.169.254/metadata/instance?api-version=2021-02-01",
		map[string]string{"Metadata": "true"})
	if err != nil {
		return CloudInfo{}, false
	}
	var doc struct {
		Compute struct {
			VMSize   string `json:"vmSize"`
			Location string `json:"location"`
		} `json:"compute"`
	}
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		return CloudInfo{}, false
	}
	vmSize := doc.Compute.VMSize
	if vmSize == "" {
		vmSize = "unknown"
	}
	location := doc.Compute.Location
	if location == "" {
		location = "unknown"
	}
	return CloudInfo{Vendor: "azure", InstanceType: vmSize, Region: location}, true
}

// checkHetzner mirrors _check_hetzner: a plain "key: value" text body.
func checkHetzner(ctx context.Context) (CloudInfo, bool) {
	body, err := metadataGet(ctx, "http://169.254.169.254/hetzner/v1/metadata", nil)
	if err != nil {
		return CloudInfo{}, false
	}

	instanceType, region := "unknown", "unknown"
	sc := bufio.NewScanner(strings.NewReader(body))
	for sc.Scan() {
		line := sc.Text()
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key, value = strings.TrimSpace(key), strings.TrimSpace(value)
		switch key {
		case "instance-id":
			instanceType = value
		case "region":
			region = value
		}
	}
	return CloudInfo{Vendor: "hcloud", InstanceType: instanceType, Region: region}, true
}

// checkUpCloud mirrors _check_upcloud: a JSON document gated on
// cloud_name == "upcloud"; no instance type is ever available.
func checkUpCloud(ctx context.Context) (CloudInfo, bool) {
	body, err := metadataGet(ctx, "http://169.254.169.254/metadata/v1.json", nil)
	if err != nil {
		return CloudInfo{}, false
	}
	var doc struct {
		CloudName string `json:"cloud_name"`
		Region    string `json:"region"`
	}
	if err := json.Unmarshal([]byte(body), &doc); err != nil || doc.CloudName != "upcloud" {
		return CloudInfo{}, false
	}
	region := doc.Region
	if region == "" {
		region = "unknown"
	}
	return CloudInfo{Vendor: "upcloud", InstanceType: "unknown", Region: region}, true
}
