package main

import (
	"flag"
	"fmt"
	"os"

	"ucenter/internal/model"
	"ucenter/pkg/config"
	"ucenter/pkg/database"

	"github.com/olekukonko/tablewriter"
	"gorm.io/gorm"
)

// dbstat 数据库运维小工具：
//
//	go run ./tools/dbstat -config config/config.yaml          打印各表统计
//	go run ./tools/dbstat -config config/config.yaml -migrate 建表/迁移
func main() {
	configPath := flag.String("config", "config/config.yaml", "配置文件路径")
	migrate := flag.Bool("migrate", false, "执行数据库迁移后退出")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect to database: %v\n", err)
		os.Exit(1)
	}

	if *migrate {
		if err := db.AutoMigrate(&model.User{}, &model.Package{}, &model.Order{}, &model.CDK{}); err != nil {
			fmt.Fprintf(os.Stderr, "migration failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("migration complete")
		return
	}

	printStats(db)
}

type tableStat struct {
	name  string
	total int64
	extra string
}

func printStats(db *gorm.DB) {
	stats := []tableStat{
		userStats(db),
		packageStats(db),
		orderStats(db),
		cdkStats(db),
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Table", "Rows", "Detail"})
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	for _, s := range stats {
		table.Append([]string{s.name, fmt.Sprintf("%d", s.total), s.extra})
	}
	table.Render()
}

func userStats(db *gorm.DB) tableStat {
	var total, wechat, disabled int64
	db.Model(&model.User{}).Count(&total)
	db.Model(&model.User{}).Where("wechat_open_id <> ''").Count(&wechat)
	db.Model(&model.User{}).Where("status = ?", model.UserStatusDisabled).Count(&disabled)
	return tableStat{
		name:  "users",
		total: total,
		extra: fmt.Sprintf("wechat_bound=%d disabled=%d", wechat, disabled),
	}
}

func packageStats(db *gorm.DB) tableStat {
	var total, enabled int64
	db.Model(&model.Package{}).Count(&total)
	db.Model(&model.Package{}).Where("enabled = true").Count(&enabled)
	return tableStat{
		name:  "packages",
		total: total,
		extra: fmt.Sprintf("enabled=%d", enabled),
	}
}

func orderStats(db *gorm.DB) tableStat {
	var total, paid int64
	db.Model(&model.Order{}).Count(&total)
	db.Model(&model.Order{}).Where("status = ?", model.OrderStatusPaid).Count(&paid)
	return tableStat{
		name:  "orders",
		total: total,
		extra: fmt.Sprintf("paid=%d", paid),
	}
}

func cdkStats(db *gorm.DB) tableStat {
	var total, used int64
	db.Model(&model.CDK{}).Count(&total)
	db.Model(&model.CDK{}).Where("used = true").Count(&used)
	return tableStat{
		name:  "cdks",
		total: total,
		extra: fmt.Sprintf("used=%d", used),
	}
}
