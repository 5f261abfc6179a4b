package models

/*
Octa Backend Database Models

This package contains all database models organized by domain:

- user.go    - User and Admin models with roles
- status.go  - Status enums and their transition tables
- payment.go - PaymentScreenshot, WithdrawalRequest and PaymentMethod models
- stock.go   - Stock and PercentageSetting models
- kyc.go     - KYC and Enquiry models
- auth.go    - Session, 2FA, login attempt and rate limit models
- utils.go   - Shared utility functions

To add new models:
1. Create a new file for your domain (e.g., wallet.go, admin.go)
2. Define your models with appropriate GORM tags
3. Add TableName() methods if needed
4. Include the models in database.AutoMigrate()
*/
