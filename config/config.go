package config

import (
	"fmt"
	"os"

	"github.com/chiapei/trailgo/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type Config struct {
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
}

func LoadConfig() (*Config, error) {
	return &Config{
		DBHost:     os.Getenv("DB_HOST"),
		DBPort:     os.Getenv("DB_PORT"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),
	}, nil
}

type ECPayConfig struct {
	MerchantID    string
	HashKey       string
	HashIV        string
	CheckoutURL   string
	ReturnURL     string
	ClientBackURL string
}

func LoadECPayConfig() (*ECPayConfig, error) {
	checkoutURL := os.Getenv("ECPAY_CHECKOUT_URL")
	if checkoutURL == "" {
		checkoutURL = "https://payment-stage.ecpay.com.tw/Cashier/AioCheckOut/V5"
	}

	cfg := &ECPayConfig{
		MerchantID:    os.Getenv("ECPAY_MERCHANT_ID"),
		HashKey:       os.Getenv("ECPAY_HASH_KEY"),
		HashIV:        os.Getenv("ECPAY_HASH_IV"),
		CheckoutURL:   checkoutURL,
		ReturnURL:     os.Getenv("HOST") + "/v1/payments/result",
		ClientBackURL: os.Getenv("FRONTEND_URL"),
	}

	if cfg.MerchantID == "" || cfg.HashKey == "" || cfg.HashIV == "" {
		return nil, fmt.Errorf("ECPAY_MERCHANT_ID, ECPAY_HASH_KEY and ECPAY_HASH_IV must be set")
	}

	return cfg, nil
}

func enableUUIDExtension(db *gorm.DB) error {
	return db.Exec("CREATE EXTENSION IF NOT EXISTS \"uuid-ossp\"").Error
}

func InitDatabase(cfg *Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := enableUUIDExtension(db); err != nil {
		return nil, err
	}

	err = db.AutoMigrate(&models.User{}, &models.Organizer{}, &models.Activity{}, &models.Payment{}, &models.Ticket{})
	if err != nil {
		return nil, err
	}

	return db, nil
}
