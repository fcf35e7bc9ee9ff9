package models

// User is the row shape of the users table
type User struct {
	ID   int64  `gorm:"column:id;primaryKey;autoIncrement"`
	Name string `gorm:"column:name;type:varchar(100);not null"`
	Age  int    `gorm:"column:age;not null"`
}

func (User) TableName() string {
	return "users"
}
