package model

// swagger:model Document
type Document struct {
	BaseModel
	UserID      *uint  `gorm:"index" json:"user_id"`
	AdminID     *uint  `gorm:"index" json:"admin_id"`
	DocName     string `gorm:"size:255;not null" json:"doc_name"`
	FilePath    string `gorm:"size:500;not null" json:"file_path"`
	FileType    string `gorm:"size:20;not null" json:"file_type"`
	FileSize    int64  `gorm:"default:0" json:"file_size"`
	TotalWords  int    `gorm:"default:0" json:"total_words"`
	TotalPages  int    `gorm:"default:0" json:"total_pages"`
	IsProcessed bool   `gorm:"default:false" json:"is_processed"`
}

func (Document) TableName() string {
	return "documents"
}

// OwnerID 学生上传归 user_id，管理员上传归 admin_id
func (d *Document) OwnerID() uint {
	if d.UserID != nil {
		return *d.UserID
	}
	if d.AdminID != nil {
		return *d.AdminID
	}
	return 0
}

func (d *Document) IsAdminDocument() bool {
	return d.AdminID != nil && d.UserID == nil
}
