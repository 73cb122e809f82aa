package normalize

import (
	"fmt"
	"studykit/internal/utils"
)

type MessageKey string

const (
	MsgTextRequired        MessageKey = "text_required"
	MsgFlashcardsFailed    MessageKey = "flashcards_failed"
	MsgQuizzesFailed       MessageKey = "quizzes_failed"
	MsgDiagramFailed       MessageKey = "diagram_failed"
	MsgSummaryFailed       MessageKey = "summary_failed"
	MsgSummaryPlaceholder  MessageKey = "summary_placeholder"
	MsgNoKeyPoints         MessageKey = "no_key_points"
	MsgTextProcessed       MessageKey = "text_processed"
	MsgFileProcessed       MessageKey = "file_processed"
	MsgTextFailed          MessageKey = "text_failed"
	MsgNoTextOrFile        MessageKey = "no_text_or_file"
	MsgNoMessage           MessageKey = "no_message"
	MsgChatFailed          MessageKey = "chat_failed"
	MsgChatNotInitialized  MessageKey = "chat_not_initialized"
	MsgChatNoContext       MessageKey = "chat_no_context"
	MsgChatReset           MessageKey = "chat_reset"
	MsgBothSources         MessageKey = "both_sources"
	MsgNoSource            MessageKey = "no_source"
	MsgInvalidYouTubeURL   MessageKey = "invalid_youtube_url"
	MsgTranscriptsDisabled MessageKey = "transcripts_disabled"
	MsgTranscriptFailed    MessageKey = "transcript_failed"
	MsgTranscriptHint      MessageKey = "transcript_hint"
	MsgUnsupportedFormat   MessageKey = "unsupported_format"
	MsgExtractionEmpty     MessageKey = "extraction_empty"
	MsgExtractionFailed    MessageKey = "extraction_failed"
)

var catalog = map[MessageKey]map[utils.Language]string{
	MsgTextRequired: {
		utils.English: "Text is required",
		utils.Arabic:  "النص مطلوب",
	},
	MsgFlashcardsFailed: {
		utils.English: "Failed to generate flashcards",
		utils.Arabic:  "فشل في إنشاء البطاقات التعليمية",
	},
	MsgQuizzesFailed: {
		utils.English: "Failed to generate quizzes",
		utils.Arabic:  "فشل في إنشاء الاختبارات",
	},
	MsgDiagramFailed: {
		utils.English: "Error generating diagram",
		utils.Arabic:  "حدث خطأ أثناء إنشاء المخطط",
	},
	MsgSummaryFailed: {
		utils.English: "Failed to generate summary",
		utils.Arabic:  "فشل في إنشاء الملخص",
	},
	MsgSummaryPlaceholder: {
		utils.English: "Summary generation failed. Please try again with different content.",
		utils.Arabic:  "فشل إنشاء الملخص. يرجى المحاولة مرة أخرى بمحتوى مختلف.",
	},
	MsgNoKeyPoints: {
		utils.English: "No key points identified.",
		utils.Arabic:  "لم يتم تحديد نقاط رئيسية.",
	},
	MsgTextProcessed: {
		utils.English: "Text processed successfully",
		utils.Arabic:  "تمت معالجة النص بنجاح",
	},
	MsgFileProcessed: {
		utils.English: "File processed successfully",
		utils.Arabic:  "تمت معالجة الملف بنجاح",
	},
	MsgTextFailed: {
		utils.English: "Error processing text",
		utils.Arabic:  "حدث خطأ أثناء معالجة النص",
	},
	MsgNoTextOrFile: {
		utils.English: "No file or text provided",
		utils.Arabic:  "لم يتم تقديم ملف أو نص",
	},
	MsgNoMessage: {
		utils.English: "No message provided",
		utils.Arabic:  "لم يتم تقديم رسالة",
	},
	MsgChatFailed: {
		utils.English: "An error occurred while processing your query",
		utils.Arabic:  "حدث خطأ أثناء معالجة استفسارك",
	},
	MsgChatNotInitialized: {
		utils.English: "The chatbot has not been initialized with a knowledge base yet. Please upload text first.",
		utils.Arabic:  "لم يتم تهيئة الروبوت المحادث بقاعدة معرفية بعد. يرجى تحميل النص أولاً.",
	},
	MsgChatNoContext: {
		utils.English: "I could not find specific information. Could you rephrase your question?",
		utils.Arabic:  "لم أتمكن من العثور على معلومات محددة. هل يمكنك إعادة صياغة سؤالك؟",
	},
	MsgChatReset: {
		utils.English: "Chatbot reset successfully",
		utils.Arabic:  "تمت إعادة تعيين الروبوت المحادث بنجاح",
	},
	MsgBothSources: {
		utils.English: "Please provide either a YouTube URL or a file, not both.",
		utils.Arabic:  "يرجى تقديم رابط يوتيوب أو ملف، وليس كليهما.",
	},
	MsgNoSource: {
		utils.English: "No file or YouTube URL provided",
		utils.Arabic:  "لم يتم تقديم ملف أو رابط يوتيوب",
	},
	MsgInvalidYouTubeURL: {
		utils.English: "Invalid YouTube URL",
		utils.Arabic:  "رابط يوتيوب غير صالح",
	},
	MsgTranscriptsDisabled: {
		utils.English: "Transcripts are disabled for this YouTube video",
		utils.Arabic:  "النصوص معطلة لهذا الفيديو",
	},
	MsgTranscriptFailed: {
		utils.English: "YouTube transcript extraction failed. Available languages: %s",
		utils.Arabic:  "فشل استخراج نص الفيديو. اللغات المتاحة: %s",
	},
	MsgTranscriptHint: {
		utils.English: "You may need to specify one of these languages in your request.",
		utils.Arabic:  "قد تحتاج إلى تحديد إحدى هذه اللغات في طلبك.",
	},
	MsgUnsupportedFormat: {
		utils.English: "Unsupported file format: .%s",
		utils.Arabic:  "صيغة ملف غير مدعومة: .%s",
	},
	MsgExtractionEmpty: {
		utils.English: "Text extraction failed. File might be empty or unreadable.",
		utils.Arabic:  "فشل استخراج النص. قد يكون الملف فارغاً أو غير قابل للقراءة.",
	},
	MsgExtractionFailed: {
		utils.English: "Text extraction failed",
		utils.Arabic:  "فشل استخراج النص",
	},
}

// Message returns the catalog text for key in l. Languages without their own
// entry read the English one. Extra args fill the message's verbs.
func Message(key MessageKey, l utils.Language, args ...any) string {
	entries, ok := catalog[key]
	if !ok {
		return string(key)
	}

	text, ok := entries[l]
	if !ok {
		text = entries[utils.English]
	}

	if len(args) > 0 {
		return fmt.Sprintf(text, args...)
	}
	return text
}
