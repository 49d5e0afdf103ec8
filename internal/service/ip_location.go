package service

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/lionsoul2014/ip2region/binding/golang/xdb"
)

// IPLocation IP地理位置信息
type IPLocation struct {
	Country  string `json:"country"`
	Province string `json:"province"`
	City     string `json:"city"`
	ISP      string `json:"isp"`
}

// String 拼接成展示用的地区字符串
func (l *IPLocation) String() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{l.Country, l.Province, l.City} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// IPLocationService IP地理位置服务接口
type IPLocationService interface {
	SearchIP(ctx context.Context, ip string) (*IPLocation, error)
}

// ipLocationService 基于ip2region xdb的实现，全库载入内存后查询
type ipLocationService struct {
	searcher  *xdb.Searcher
	dbPath    string
	initOnce  sync.Once
	initError error
}

// NewIPLocationService 创建IP地理位置服务实例
func NewIPLocationService(dbPath string) IPLocationService {
	return &ipLocationService{dbPath: dbPath}
}

// initSearcher 延迟初始化搜索器，首个查询触发
func (s *ipLocationService) initSearcher() error {
	s.initOnce.Do(func() {
		content, err := os.ReadFile(s.dbPath)
		if err != nil {
			s.initError = fmt.Errorf("failed to read ip database: %w", err)
			return
		}

		searcher, err := xdb.NewWithBuffer(content)
		if err != nil {
			s.initError = fmt.Errorf("failed to create ip searcher: %w", err)
			return
		}
		s.searcher = searcher
	})
	return s.initError
}

// SearchIP 搜索IP地理位置
func (s *ipLocationService) SearchIP(ctx context.Context, ip string) (*IPLocation, error) {
	if err := s.initSearcher(); err != nil {
		return nil, err
	}

	region, err := s.searcher.SearchByStr(ip)
	if err != nil {
		return nil, fmt.Errorf("failed to search ip %s: %w", ip, err)
	}

	// ip2region 返回格式: "中国|0|江苏省|南京市|电信"
	parts := strings.Split(region, "|")
	location := &IPLocation{}
	if len(parts) >= 5 {
		location.Country = parts[0]
		if parts[2] != "0" {
			location.Province = parts[2]
		}
		if parts[3] != "0" {
			location.City = parts[3]
		}
		if parts[4] != "0" {
			location.ISP = parts[4]
		}
	}
	return location, nil
}
