// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_entity

import "time"

//

type Recording struct {
	Id        uint64    `json:"id" gorm:"primaryKey;autoIncrement"`
	Filename  string    `json:"filename" gorm:"type:string;size:255;not null;uniqueIndex"`
	Size      int64     `json:"size" gorm:"type:bigint;not null"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CREATE TABLE recordings (
//     id INTEGER PRIMARY KEY AUTOINCREMENT,
//     filename VARCHAR(255) NOT NULL UNIQUE,
//     size BIGINT NOT NULL,
//     created_at TIMESTAMP,
//     updated_at TIMESTAMP
// );
// CREATE INDEX idx_recordings_created_at ON recordings(created_at);
